package http

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/match"
)

// eventResponse is what the tracker needs after a tap: the event and the new scoreboard.
type eventResponse struct {
	Event *match.Event `json:"event"`
	Score match.Score  `json:"score"`
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := s.Matches.ListForUser(r.Context(), actorFrom(r))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func (s *Server) CreateMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in match.CreateInput
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		m, err := s.Matches.Create(r.Context(), actorFrom(r), in)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func (s *Server) GetMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		m, err := s.Matches.Get(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"match": m, "score": m.Score()})
	}
}

func (s *Server) DeleteMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		if err := s.Matches.Delete(r.Context(), actorFrom(r), id); err != nil {
			handleError(w, err)
			return
		}
		writeOK(w)
	}
}

func (s *Server) MatchEventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		events, err := s.Matches.Events(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// readPlay decodes a tracker tap for the match in the path.
func readPlay(r *http.Request) (int64, match.Play, error) {
	var play match.Play
	id, err := pathID(r, "id")
	if err != nil {
		return 0, play, err
	}
	if err := decodeJSON(r, &play); err != nil {
		return 0, play, err
	}
	return id, play, nil
}

func (s *Server) RecordActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, play, err := readPlay(r)
		if err != nil {
			handleError(w, err)
			return
		}
		ev, score, err := s.Matches.RecordAction(r.Context(), actorFrom(r), id, play)
		if err != nil {
			handleError(w, err)
			return
		}
		s.Metrics.IncMatchEvents()
		writeJSON(w, http.StatusCreated, eventResponse{Event: ev, Score: score})
	}
}

func (s *Server) OpponentPointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, play, err := readPlay(r)
		if err != nil {
			handleError(w, err)
			return
		}
		ev, score, err := s.Matches.RecordOpponentPoints(r.Context(), actorFrom(r), id, play)
		if err != nil {
			handleError(w, err)
			return
		}
		s.Metrics.IncMatchEvents()
		writeJSON(w, http.StatusCreated, eventResponse{Event: ev, Score: score})
	}
}

// UndoHandler removes one event. An empty body undoes the latest event of the match.
func (s *Server) UndoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var filter match.UndoFilter
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &filter); err != nil {
				handleError(w, err)
				return
			}
		}
		ev, score, err := s.Matches.Undo(r.Context(), actorFrom(r), id, filter)
		if err != nil {
			handleError(w, err)
			return
		}
		s.Metrics.IncMatchUndos()
		writeJSON(w, http.StatusOK, eventResponse{Event: ev, Score: score})
	}
}

// FinishMatchHandler closes a match and posts the box score.
func (s *Server) FinishMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		actor := actorFrom(r)
		m, err := s.Matches.Finish(r.Context(), actor, id)
		if err != nil {
			handleError(w, err)
			return
		}

		stats, err := s.Matches.Stats(r.Context(), actor, id)
		if err != nil {
			log.Error("Failed to compute match stats for summary", "matchID", id, "error", err)
		} else if err := s.Notifier.MatchFinished(m, stats, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to notify match summary", "matchID", id, "error", err)
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) MatchStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		stats, err := s.Matches.Stats(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
