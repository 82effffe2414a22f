package notifier

import (
	"github.com/jcaplliure/EntrenadorBasket/internal/match"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/session"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// An assistant coach was invited to a team
	StaffInvited(t *team.Team, staff *team.Staff, dryRun bool) error
	// A training session was closed; top is the team's training leaderboard head
	SessionFinished(t *team.Team, sess *session.Session, top []scoring.Entry, dryRun bool) error
	// A live match was closed
	MatchFinished(m *match.Match, stats *scoring.MatchStats, dryRun bool) error
}

// Noop drops every notification. It is used when no provider is configured.
type Noop struct{}

var _ Notifier = Noop{}

func (Noop) StaffInvited(*team.Team, *team.Staff, bool) error { return nil }

func (Noop) SessionFinished(*team.Team, *session.Session, []scoring.Entry, bool) error { return nil }

func (Noop) MatchFinished(*match.Match, *scoring.MatchStats, bool) error { return nil }
