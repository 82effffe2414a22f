package team

import (
	"context"

	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// Authorizer answers whether a caller may work with a team.
type Authorizer interface {
	CanAccess(ctx context.Context, actor identity.Identity, teamID int64) (bool, error)
	RequireAccess(ctx context.Context, actor identity.Identity, teamID int64) error
	RequireOwner(ctx context.Context, actor identity.Identity, teamID int64) error
}

// TeamStore defines the interface for teams, their players and their staff.
type TeamStore interface {
	Authorizer

	Create(ctx context.Context, actor identity.Identity, in TeamInput) (*Team, error)
	ListForUser(ctx context.Context, actor identity.Identity) ([]Team, error)
	Get(ctx context.Context, actor identity.Identity, id int64) (*Team, error)
	GetPublic(ctx context.Context, id int64) (*Team, error)
	UpdateSettings(ctx context.Context, actor identity.Identity, id int64, in SettingsInput) (*Team, error)
	SetLogo(ctx context.Context, actor identity.Identity, id int64, file string) (string, error)
	Delete(ctx context.Context, actor identity.Identity, id int64) error

	AddPlayer(ctx context.Context, actor identity.Identity, teamID int64, in PlayerInput) (*Player, error)
	UpdatePlayer(ctx context.Context, actor identity.Identity, playerID int64, in PlayerInput) (*Player, error)
	SetPlayerPhoto(ctx context.Context, actor identity.Identity, playerID int64, file string) (string, error)
	DeletePlayer(ctx context.Context, actor identity.Identity, playerID int64) (*Player, error)
	GetPlayer(ctx context.Context, actor identity.Identity, playerID int64) (*Player, error)
	ListPlayers(ctx context.Context, actor identity.Identity, teamID int64) ([]Player, error)
	ListPlayersPublic(ctx context.Context, teamID int64) ([]Player, error)

	Invite(ctx context.Context, actor identity.Identity, teamID int64, email, role string) (*Staff, error)
	AcceptInvite(ctx context.Context, actor identity.Identity, staffID int64) (*Staff, error)
	RejectInvite(ctx context.Context, actor identity.Identity, staffID int64) (*Staff, error)
	RemoveStaff(ctx context.Context, actor identity.Identity, staffID int64) (*Staff, error)
	ListStaff(ctx context.Context, actor identity.Identity, teamID int64) ([]Staff, error)
	PendingInvites(ctx context.Context, actor identity.Identity) ([]Staff, error)
}
