package user

import (
	"context"
	"database/sql"

	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// UserStore defines the interface for reading and writing coach accounts and invitations.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	CreateTx(ctx context.Context, tx *sql.Tx, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetPassword(ctx context.Context, id int64, hash string) error
	SetLastBlocksConfig(ctx context.Context, id int64, blocks string) error
	IsAdminEmail(email string) bool
	IsInvited(ctx context.Context, email string) (bool, error)
	Invite(ctx context.Context, actor identity.Identity, email string) error
	ListInvitations(ctx context.Context, actor identity.Identity) ([]Invitation, error)
	DeleteInvitation(ctx context.Context, actor identity.Identity, email string) error
}
