package http

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/session"
)

// topOfTable is how many leaders a session summary announces.
const topOfTable = 3

func (s *Server) StartSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			TeamID int64 `json:"team_id" validate:"required"`
			PlanID int64 `json:"plan_id"`
		}
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		sess, err := s.Sessions.Start(r.Context(), actorFrom(r), in.TeamID, in.PlanID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	}
}

func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		detail, err := s.Sessions.Get(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func (s *Server) DeleteSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		if err := s.Sessions.Delete(r.Context(), actorFrom(r), id); err != nil {
			handleError(w, err)
			return
		}
		writeOK(w)
	}
}

func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		sessions, err := s.Sessions.ListForTeam(r.Context(), actorFrom(r), teamID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func (s *Server) AttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in struct {
			PlayerID int64 `json:"player_id" validate:"required"`
			Present  bool  `json:"present"`
		}
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		if err := s.Sessions.SetAttendance(r.Context(), actorFrom(r), id, in.PlayerID, in.Present); err != nil {
			handleError(w, err)
			return
		}
		writeOK(w)
	}
}

// SaveScoresHandler ranks the raw results of one drill and stores the points.
func (s *Server) SaveScoresHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in struct {
			DrillID   int64               `json:"drill_id" validate:"required"`
			Criterion string              `json:"criterion" validate:"criterion"`
			Results   []scoring.RawResult `json:"results" validate:"required,min=1"`
		}
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		scored, err := s.Sessions.SaveDrillResults(r.Context(), actorFrom(r), id, in.DrillID, scoring.Criterion(in.Criterion), in.Results)
		if err != nil {
			handleError(w, err)
			return
		}
		s.Metrics.AddSessionScores(len(scored))
		writeJSON(w, http.StatusOK, scored)
	}
}

func (s *Server) LatePlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in session.LatePlayerInput
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		p, err := s.Sessions.AddLatePlayer(r.Context(), actorFrom(r), id, in)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// FinishSessionHandler closes a session and posts the team's updated leaderboard head.
func (s *Server) FinishSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		actor := actorFrom(r)
		sess, err := s.Sessions.Finish(r.Context(), actor, id)
		if err != nil {
			handleError(w, err)
			return
		}

		t, err := s.Teams.Get(r.Context(), actor, sess.TeamID)
		if err != nil {
			log.Error("Failed to load team for session summary", "sessionID", id, "error", err)
			writeJSON(w, http.StatusOK, sess)
			return
		}
		entries, err := s.Rankings.TeamRanking(r.Context(), actor, sess.TeamID)
		if err != nil {
			log.Error("Failed to rank team for session summary", "sessionID", id, "error", err)
			writeJSON(w, http.StatusOK, sess)
			return
		}
		if len(entries) > topOfTable {
			entries = entries[:topOfTable]
		}
		if err := s.Notifier.SessionFinished(t, sess, entries, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to notify session summary", "sessionID", id, "error", err)
		}
		writeJSON(w, http.StatusOK, sess)
	}
}
