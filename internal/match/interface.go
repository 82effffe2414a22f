package match

import (
	"context"

	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
)

// MatchStore defines the interface for live match tracking.
type MatchStore interface {
	// Create opens a live match for a team the caller can access.
	Create(ctx context.Context, actor identity.Identity, in CreateInput) (*Match, error)
	Get(ctx context.Context, actor identity.Identity, id int64) (*Match, error)
	// ListForUser returns matches of every team the caller owns or coaches, newest first.
	ListForUser(ctx context.Context, actor identity.Identity) ([]Match, error)
	Delete(ctx context.Context, actor identity.Identity, id int64) error
	Finish(ctx context.Context, actor identity.Identity, id int64) (*Match, error)

	// RecordAction logs a player action and adds its score value to the team result.
	RecordAction(ctx context.Context, actor identity.Identity, matchID int64, play Play) (*Event, Score, error)
	// RecordOpponentPoints logs an opponent basket.
	RecordOpponentPoints(ctx context.Context, actor identity.Identity, matchID int64, play Play) (*Event, Score, error)
	// Undo removes one event and reverses its effect on the result.
	Undo(ctx context.Context, actor identity.Identity, matchID int64, filter UndoFilter) (*Event, Score, error)

	Events(ctx context.Context, actor identity.Identity, matchID int64) ([]Event, error)
	Stats(ctx context.Context, actor identity.Identity, matchID int64) (*scoring.MatchStats, error)
	// CountsByAction tallies player events over the given matches and how many of them each
	// player was rostered for. Callers are expected to have authorized the match ids.
	CountsByAction(ctx context.Context, matchIDs []int64) ([]scoring.Tally, map[int64]int, error)
}
