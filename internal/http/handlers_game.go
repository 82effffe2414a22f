package http

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/game"
	"github.com/jcaplliure/EntrenadorBasket/internal/ranking"
)

func (s *Server) ListActionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actions, err := s.Games.ListActions(r.Context(), actorFrom(r).UserID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, actions)
	}
}

func (s *Server) CreateActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in game.ActionInput
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		a, err := s.Games.CreateAction(r.Context(), actorFrom(r), in)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func (s *Server) UpdateActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in game.ActionInput
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		a, err := s.Games.UpdateAction(r.Context(), actorFrom(r), id, in)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func (s *Server) DeleteActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		if err := s.Games.DeleteAction(r.Context(), actorFrom(r), id); err != nil {
			handleError(w, err)
			return
		}
		writeOK(w)
	}
}

// MoveActionHandler drags an action to another cell, swapping with the occupant when asked.
func (s *Server) MoveActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in struct {
			Row  int  `json:"row" validate:"min=0"`
			Col  int  `json:"col" validate:"min=0,max=2"`
			Swap bool `json:"swap"`
		}
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		actions, err := s.Games.MoveAction(r.Context(), actorFrom(r), id, in.Row, in.Col, in.Swap)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, actions)
	}
}

// GameConfigHandler saves the weights edited on the game configuration page in one go.
// With normalize set, the stored grid positions are also rewritten collision-free.
func (s *Server) GameConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Values    map[int64]float64 `json:"values"`
			Normalize bool              `json:"normalize"`
		}
		if err := decodeJSON(r, &in); err != nil {
			handleError(w, err)
			return
		}
		actor := actorFrom(r)
		if len(in.Values) > 0 {
			if err := s.Games.UpdateValues(r.Context(), actor, in.Values); err != nil {
				handleError(w, err)
				return
			}
		}
		if in.Normalize {
			moved, err := s.Games.Normalize(r.Context(), actor)
			if err != nil {
				handleError(w, err)
				return
			}
			log.Info("Normalized action grid", "userID", actor.UserID, "moved", moved)
		}
		actions, err := s.Games.ListActions(r.Context(), actor.UserID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, actions)
	}
}

func (s *Server) ListRankingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rankings, err := s.Games.ListRankings(r.Context(), actorFrom(r).UserID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rankings)
	}
}

func (s *Server) CreateRankingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in game.RankingInput
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		def, err := s.Games.CreateRanking(r.Context(), actorFrom(r), in)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, def)
	}
}

func (s *Server) UpdateRankingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in game.RankingInput
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		def, err := s.Games.UpdateRanking(r.Context(), actorFrom(r), id, in)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, def)
	}
}

func (s *Server) DeleteRankingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		if err := s.Games.DeleteRanking(r.Context(), actorFrom(r), id); err != nil {
			handleError(w, err)
			return
		}
		writeOK(w)
	}
}

// RankingBoardHandler computes a leaderboard. Query parameters: match_ids (comma separated),
// team_id for session rankings, and average.
func (s *Server) RankingBoardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		matchIDs, err := idList(r.URL.Query().Get("match_ids"))
		if err != nil {
			handleError(w, err)
			return
		}
		q := ranking.Query{MatchIDs: matchIDs, Average: queryBool(r, "average")}
		if raw := r.URL.Query().Get("team_id"); raw != "" {
			ids, err := idList(raw)
			if err != nil || len(ids) != 1 {
				handleError(w, errBadRequest)
				return
			}
			q.TeamID = ids[0]
		}

		board, err := s.Rankings.Board(r.Context(), actorFrom(r), id, q)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}
