package drill

import (
	"context"
	"io"

	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// DrillStore defines the interface for the drill library.
type DrillStore interface {
	List(ctx context.Context, actor identity.Identity, filter ListFilter) ([]Drill, error)
	Get(ctx context.Context, actor identity.Identity, id int64) (*Drill, error)
	Create(ctx context.Context, actor identity.Identity, in Input) (*Drill, error)
	Update(ctx context.Context, actor identity.Identity, id int64, in Input) (*Drill, error)
	Delete(ctx context.Context, actor identity.Identity, id int64) (*Drill, error)
	Duplicate(ctx context.Context, actor identity.Identity, id int64) (*Drill, error)
	RecordView(ctx context.Context, id int64, ip string) (bool, error)
	ToggleFavorite(ctx context.Context, actor identity.Identity, id int64) (bool, error)
	IsFileReferenced(ctx context.Context, name string) (bool, error)

	ListTags(ctx context.Context) ([]Tag, error)
	CreateTag(ctx context.Context, actor identity.Identity, name string) (*Tag, error)
	DeleteTag(ctx context.Context, actor identity.Identity, id int64) error

	Import(ctx context.Context, actor identity.Identity, r io.Reader) (*ImportReport, error)
}
