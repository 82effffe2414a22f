package game

import (
	"context"
	"database/sql"

	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// GameStore defines the interface for a coach's action and ranking definitions.
type GameStore interface {
	ListActions(ctx context.Context, ownerID int64) ([]Action, error)
	GetAction(ctx context.Context, actor identity.Identity, id int64) (*Action, error)
	CreateAction(ctx context.Context, actor identity.Identity, in ActionInput) (*Action, error)
	UpdateAction(ctx context.Context, actor identity.Identity, id int64, in ActionInput) (*Action, error)
	MoveAction(ctx context.Context, actor identity.Identity, id int64, row, col int, swap bool) ([]Action, error)
	DeleteAction(ctx context.Context, actor identity.Identity, id int64) error
	UpdateValues(ctx context.Context, actor identity.Identity, values map[int64]float64) error
	Normalize(ctx context.Context, actor identity.Identity) (int, error)
	HasActions(ctx context.Context, ownerID int64) (bool, error)
	InstallDefaults(ctx context.Context, ownerID int64) error
	InstallDefaultsTx(ctx context.Context, tx *sql.Tx, ownerID int64) error

	ListRankings(ctx context.Context, ownerID int64) ([]Ranking, error)
	GetRanking(ctx context.Context, actor identity.Identity, id int64) (*Ranking, error)
	CreateRanking(ctx context.Context, actor identity.Identity, in RankingInput) (*Ranking, error)
	UpdateRanking(ctx context.Context, actor identity.Identity, id int64, in RankingInput) (*Ranking, error)
	DeleteRanking(ctx context.Context, actor identity.Identity, id int64) error
}
