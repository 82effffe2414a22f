package http

import (
	"context"
	"database/sql"
	"net/http"
	"net/netip"

	"github.com/jcaplliure/EntrenadorBasket/internal/auth"
	"github.com/jcaplliure/EntrenadorBasket/internal/config"
	"github.com/jcaplliure/EntrenadorBasket/internal/drill"
	"github.com/jcaplliure/EntrenadorBasket/internal/game"
	"github.com/jcaplliure/EntrenadorBasket/internal/match"
	"github.com/jcaplliure/EntrenadorBasket/internal/media"
	"github.com/jcaplliure/EntrenadorBasket/internal/metrics"
	"github.com/jcaplliure/EntrenadorBasket/internal/notifier"
	"github.com/jcaplliure/EntrenadorBasket/internal/plan"
	"github.com/jcaplliure/EntrenadorBasket/internal/ranking"
	"github.com/jcaplliure/EntrenadorBasket/internal/session"
	"github.com/jcaplliure/EntrenadorBasket/internal/siteconfig"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
	"github.com/jcaplliure/EntrenadorBasket/internal/user"
	"github.com/jcaplliure/EntrenadorBasket/internal/validation"
)

// Stores groups the database-backed stores the server reads and writes.
type Stores struct {
	DB         *sql.DB
	Users      user.UserStore
	Teams      team.TeamStore
	Drills     drill.DrillStore
	Plans      plan.PlanStore
	Sessions   session.SessionStore
	Games      game.GameStore
	Matches    match.MatchStore
	SiteConfig siteconfig.ConfigStore
}

// NewStores builds every store on a single database handle.
func NewStores(db *sql.DB, adminEmail string) Stores {
	teams := team.New(db)
	return Stores{
		DB:         db,
		Users:      user.New(db, adminEmail),
		Teams:      teams,
		Drills:     drill.New(db),
		Plans:      plan.New(db),
		Sessions:   session.New(db, teams),
		Games:      game.New(db),
		Matches:    match.New(db, teams),
		SiteConfig: siteconfig.New(db),
	}
}

// LinkChecker checks external drill links.
type LinkChecker interface {
	Check(ctx context.Context, url string) bool
}

type Server struct {
	Stores
	Rankings       *ranking.Service
	Auth           *auth.Service
	Tokens         *auth.Sessions
	Google         *auth.Google
	Links          LinkChecker
	Media          *media.Store
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Validator      *validation.Validator
	Router         *http.ServeMux

	limiter *ipLimiter
	proxies []netip.Prefix
}

// flash is a one-shot message shown on the next rendered page.
type flash struct {
	Kind    string `msgpack:"k"`
	Message string `msgpack:"m"`
}
