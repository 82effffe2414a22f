package http

import (
	"net/http"

	"github.com/jcaplliure/EntrenadorBasket/internal/plan"
)

func (s *Server) ListPlansHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := s.Plans.ListForOwner(r.Context(), actorFrom(r))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plans)
	}
}

func (s *Server) CreatePlanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in plan.Input
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		p, err := s.Plans.Create(r.Context(), actorFrom(r), in)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func (s *Server) GetPlanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		p, err := s.Plans.Get(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) UpdatePlanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in plan.Input
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		p, err := s.Plans.Update(r.Context(), actorFrom(r), id, in)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) DeletePlanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		if err := s.Plans.Delete(r.Context(), actorFrom(r), id); err != nil {
			handleError(w, err)
			return
		}
		writeOK(w)
	}
}

func (s *Server) DuplicatePlanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		p, err := s.Plans.Duplicate(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func (s *Server) AddPlanItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in struct {
			DrillID int64  `json:"drill_id" validate:"required"`
			Block   string `json:"block" validate:"required,max=100"`
		}
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		item, err := s.Plans.AddItem(r.Context(), actorFrom(r), planID, in.DrillID, in.Block)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func (s *Server) UpdatePlanItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in struct {
			Duration int `json:"duration"`
		}
		if err := decodeJSON(r, &in); err != nil {
			handleError(w, err)
			return
		}
		if err := s.Plans.UpdateItemDuration(r.Context(), actorFrom(r), id, in.Duration); err != nil {
			handleError(w, err)
			return
		}
		writeOK(w)
	}
}

func (s *Server) DeletePlanItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		planID, err := s.Plans.DeleteItem(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "plan_id": planID})
	}
}

// LastBlocksHandler returns the block structure the caller used last, or the default one.
func (s *Server) LastBlocksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.Users.GetByID(r.Context(), actorFrom(r).UserID)
		if err != nil {
			handleError(w, err)
			return
		}
		blocks := u.Blocks()
		writeJSON(w, http.StatusOK, map[string]any{"blocks_csv": blocks, "blocks": plan.ParseBlocks(blocks)})
	}
}
