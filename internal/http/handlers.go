package http

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/siteconfig"
)

const uploadsPrefix = siteconfig.UploadsPath

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// HomeHandler sends anonymous visitors to the login page and coaches to their profile.
func (s *Server) HomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if actorFrom(r).Anonymous() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/api/me", http.StatusSeeOther)
	}
}

// SiteConfigHandler serves the card backgrounds and overlays as loadable URLs.
func (s *Server) SiteConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, err := s.SiteConfig.All(r.Context())
		if err != nil {
			handleError(w, err)
			return
		}
		for k, v := range values {
			values[k] = siteconfig.URL(v)
		}
		writeJSON(w, http.StatusOK, values)
	}
}

func (s *Server) TeamRankingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		entries, err := s.Rankings.TeamRanking(r.Context(), actorFrom(r), teamID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// PublicRankingHandler is the unauthenticated JSON view of a team's training leaderboard.
func (s *Server) PublicRankingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		board, err := s.Rankings.PublicRanking(r.Context(), teamID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}

func (s *Server) PublicPortalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := pathID(r, "id")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		board, err := s.Rankings.PublicRanking(r.Context(), teamID)
		if err != nil {
			log.Warn("Public portal unavailable", "teamID", teamID, "error", err)
			http.NotFound(w, r)
			return
		}
		renderPage(r.Context(), w, publicRankingPage(board), "public_ranking")
	}
}
