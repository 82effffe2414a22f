package session

import (
	"context"

	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
)

// SessionStore defines the interface for training sessions and their gamified results.
type SessionStore interface {
	Start(ctx context.Context, actor identity.Identity, teamID, planID int64) (*Session, error)
	Get(ctx context.Context, actor identity.Identity, id int64) (*Detail, error)
	ListForTeam(ctx context.Context, actor identity.Identity, teamID int64) ([]Session, error)
	SetAttendance(ctx context.Context, actor identity.Identity, sessionID, playerID int64, present bool) error
	SaveDrillResults(ctx context.Context, actor identity.Identity, sessionID, drillID int64, criterion scoring.Criterion, results []scoring.RawResult) ([]scoring.Scored, error)
	AddLatePlayer(ctx context.Context, actor identity.Identity, sessionID int64, in LatePlayerInput) (*team.Player, error)
	Finish(ctx context.Context, actor identity.Identity, sessionID int64) (*Session, error)
	Delete(ctx context.Context, actor identity.Identity, sessionID int64) error
	TeamPoints(ctx context.Context, teamID int64) (map[int64]int, error)
}
