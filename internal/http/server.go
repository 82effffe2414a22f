package http

import (
	"net/http"
	"strings"

	"github.com/jcaplliure/EntrenadorBasket/internal/auth"
	"github.com/jcaplliure/EntrenadorBasket/internal/config"
	"github.com/jcaplliure/EntrenadorBasket/internal/drill"
	"github.com/jcaplliure/EntrenadorBasket/internal/media"
	"github.com/jcaplliure/EntrenadorBasket/internal/metrics"
	"github.com/jcaplliure/EntrenadorBasket/internal/notifier"
	"github.com/jcaplliure/EntrenadorBasket/internal/ranking"
	"github.com/jcaplliure/EntrenadorBasket/internal/validation"
)

func NewServer(stores Stores, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, mediaStore *media.Store) *Server {
	server := &Server{
		Stores:         stores,
		Rankings:       ranking.NewService(stores.Games, stores.Matches, stores.Sessions, stores.Teams),
		Auth:           auth.NewService(stores.DB, stores.Users, stores.Games),
		Tokens:         auth.NewSessions(cfg.SecretKey, cfg.SessionTTL),
		Links:          drill.NewLinkChecker(),
		Media:          mediaStore,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Validator:      validation.New(),
		Router:         http.NewServeMux(),
		limiter:        newIPLimiter(cfg.LoginRatePerMinute),
		proxies:        parseTrustedProxies(cfg.TrustedProxies),
	}
	if cfg.Google.Enabled() {
		server.Google = auth.NewGoogle(cfg.Google.ClientID, cfg.Google.ClientSecret, strings.TrimRight(cfg.BaseURL, "/")+"/auth/callback")
	}

	server.routes()
	return server
}

// handle registers pattern with the common middleware stack in front of h.
// Extra middlewares run after the caller identity is resolved.
func (s *Server) handle(pattern string, h http.Handler, extra ...Middleware) {
	mws := append([]Middleware{s.instrument(pattern), paramsMiddleware, s.identityMiddleware}, extra...)
	s.Router.Handle(pattern, Chain(h, mws...))
}

func (s *Server) routes() {
	authed := requireAuth
	admin := requireAdmin
	limited := s.rateLimit

	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.handle("GET /health", s.HealthCheckHandler())
	s.Router.Handle("GET "+uploadsPrefix, http.StripPrefix(uploadsPrefix, http.FileServer(http.Dir(s.Media.Dir()))))

	// Browser auth flows
	s.handle("GET /{$}", s.HomeHandler())
	s.handle("GET /login", s.LoginPageHandler())
	s.handle("POST /login", s.LoginHandler(), limited)
	s.handle("POST /register", s.RegisterHandler(), limited)
	s.handle("POST /logout", s.LogoutHandler())
	s.handle("GET /login/google", s.GoogleLoginHandler())
	s.handle("GET /auth/callback", s.GoogleCallbackHandler(), limited)
	s.handle("GET /api/me", s.MeHandler(), authed)

	// Drill library
	s.handle("GET /api/drills", s.ListDrillsHandler(), authed)
	s.handle("POST /api/drills", s.CreateDrillHandler(), authed)
	s.handle("GET /api/drills/{id}", s.GetDrillHandler(), authed)
	s.handle("PUT /api/drills/{id}", s.UpdateDrillHandler(), authed)
	s.handle("DELETE /api/drills/{id}", s.DeleteDrillHandler(), authed)
	s.handle("POST /api/drills/{id}/duplicate", s.DuplicateDrillHandler(), authed)
	s.handle("POST /api/drills/{id}/favorite", s.FavoriteDrillHandler(), authed)
	s.handle("POST /api/check_link", s.CheckLinkHandler(), authed, limited)
	s.handle("GET /api/tags", s.ListTagsHandler(), authed)

	// Admin
	s.handle("POST /api/admin/tags", s.CreateTagHandler(), authed, admin)
	s.handle("DELETE /api/admin/tags/{id}", s.DeleteTagHandler(), authed, admin)
	s.handle("GET /api/admin/config", s.ListSiteConfigHandler(), authed, admin)
	s.handle("POST /api/admin/config", s.UpdateSiteConfigHandler(), authed, admin)
	s.handle("POST /api/admin/import_drills", s.ImportDrillsHandler(), authed, admin)
	s.handle("GET /api/admin/invitations", s.ListInvitationsHandler(), authed, admin)
	s.handle("POST /api/admin/invitations", s.CreateInvitationHandler(), authed, admin)
	s.handle("DELETE /api/admin/invitations/{email}", s.DeleteInvitationHandler(), authed, admin)

	// Plans
	s.handle("GET /api/plans", s.ListPlansHandler(), authed)
	s.handle("POST /api/plans", s.CreatePlanHandler(), authed)
	s.handle("GET /api/plans/{id}", s.GetPlanHandler(), authed)
	s.handle("PUT /api/plans/{id}", s.UpdatePlanHandler(), authed)
	s.handle("DELETE /api/plans/{id}", s.DeletePlanHandler(), authed)
	s.handle("POST /api/plans/{id}/duplicate", s.DuplicatePlanHandler(), authed)
	s.handle("POST /api/plans/{id}/items", s.AddPlanItemHandler(), authed)
	s.handle("PATCH /api/plan_items/{id}", s.UpdatePlanItemHandler(), authed)
	s.handle("DELETE /api/plan_items/{id}", s.DeletePlanItemHandler(), authed)
	s.handle("GET /api/me/blocks", s.LastBlocksHandler(), authed)

	// Teams and staff
	s.handle("GET /api/teams", s.ListTeamsHandler(), authed)
	s.handle("POST /api/teams", s.CreateTeamHandler(), authed)
	s.handle("GET /api/teams/{id}", s.GetTeamHandler(), authed)
	s.handle("DELETE /api/teams/{id}", s.DeleteTeamHandler(), authed)
	s.handle("POST /api/teams/{id}/settings", s.TeamSettingsHandler(), authed)
	s.handle("POST /api/teams/{id}/players", s.AddPlayerHandler(), authed)
	s.handle("PUT /api/players/{id}", s.UpdatePlayerHandler(), authed)
	s.handle("DELETE /api/players/{id}", s.DeletePlayerHandler(), authed)
	s.handle("POST /api/teams/{id}/staff", s.InviteStaffHandler(), authed)
	s.handle("DELETE /api/teams/{id}/staff/{staffID}", s.RemoveStaffHandler(), authed)
	s.handle("GET /api/invites", s.PendingInvitesHandler(), authed)
	s.handle("POST /api/invites/{id}/accept", s.AnswerInviteHandler(true), authed)
	s.handle("POST /api/invites/{id}/reject", s.AnswerInviteHandler(false), authed)

	// Training sessions
	s.handle("POST /api/sessions", s.StartSessionHandler(), authed)
	s.handle("GET /api/sessions/{id}", s.GetSessionHandler(), authed)
	s.handle("DELETE /api/sessions/{id}", s.DeleteSessionHandler(), authed)
	s.handle("POST /api/sessions/{id}/attendance", s.AttendanceHandler(), authed)
	s.handle("POST /api/sessions/{id}/scores", s.SaveScoresHandler(), authed)
	s.handle("POST /api/sessions/{id}/late_player", s.LatePlayerHandler(), authed)
	s.handle("POST /api/sessions/{id}/finish", s.FinishSessionHandler(), authed)
	s.handle("GET /api/teams/{id}/sessions", s.ListSessionsHandler(), authed)

	// Game configuration
	s.handle("GET /api/actions", s.ListActionsHandler(), authed)
	s.handle("POST /api/actions", s.CreateActionHandler(), authed)
	s.handle("PUT /api/actions/{id}", s.UpdateActionHandler(), authed)
	s.handle("DELETE /api/actions/{id}", s.DeleteActionHandler(), authed)
	s.handle("POST /api/actions/{id}/move", s.MoveActionHandler(), authed)
	s.handle("POST /api/game_config", s.GameConfigHandler(), authed)
	s.handle("GET /api/rankings", s.ListRankingsHandler(), authed)
	s.handle("POST /api/rankings", s.CreateRankingHandler(), authed)
	s.handle("PUT /api/rankings/{id}", s.UpdateRankingHandler(), authed)
	s.handle("DELETE /api/rankings/{id}", s.DeleteRankingHandler(), authed)
	s.handle("GET /api/rankings/{id}/board", s.RankingBoardHandler(), authed)

	// Live matches
	s.handle("GET /api/matches", s.ListMatchesHandler(), authed)
	s.handle("POST /api/matches", s.CreateMatchHandler(), authed)
	s.handle("GET /api/matches/{id}", s.GetMatchHandler(), authed)
	s.handle("DELETE /api/matches/{id}", s.DeleteMatchHandler(), authed)
	s.handle("GET /api/matches/{id}/events", s.MatchEventsHandler(), authed)
	s.handle("POST /api/matches/{id}/events", s.RecordActionHandler(), authed)
	s.handle("POST /api/matches/{id}/opponent_points", s.OpponentPointsHandler(), authed)
	s.handle("POST /api/matches/{id}/undo", s.UndoHandler(), authed)
	s.handle("POST /api/matches/{id}/finish", s.FinishMatchHandler(), authed)
	s.handle("GET /api/matches/{id}/stats", s.MatchStatsHandler(), authed)

	// Rankings and public portal
	s.handle("GET /api/teams/{id}/ranking", s.TeamRankingHandler(), authed)
	s.handle("GET /teams/{id}/public", s.PublicPortalHandler())
	s.handle("GET /api/public/teams/{id}/ranking", s.PublicRankingHandler())
	s.handle("GET /api/site_config", s.SiteConfigHandler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
