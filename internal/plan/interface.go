package plan

import (
	"context"

	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// PlanStore defines the interface for training plans.
type PlanStore interface {
	Create(ctx context.Context, actor identity.Identity, in Input) (*Plan, error)
	ListForOwner(ctx context.Context, actor identity.Identity) ([]Plan, error)
	Get(ctx context.Context, actor identity.Identity, id int64) (*Plan, error)
	Update(ctx context.Context, actor identity.Identity, id int64, in Input) (*Plan, error)
	Delete(ctx context.Context, actor identity.Identity, id int64) error
	Duplicate(ctx context.Context, actor identity.Identity, id int64) (*Plan, error)

	AddItem(ctx context.Context, actor identity.Identity, planID, drillID int64, block string) (*Item, error)
	UpdateItemDuration(ctx context.Context, actor identity.Identity, itemID int64, minutes int) error
	DeleteItem(ctx context.Context, actor identity.Identity, itemID int64) (int64, error)
}
