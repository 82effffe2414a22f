package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jcaplliure/EntrenadorBasket/internal/user"
)

var (
	ErrNotInvited         = errors.New("this email has not been invited")
	ErrEmailTaken         = user.ErrEmailTaken
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrOAuthDisabled      = errors.New("google login is not configured")
	ErrOAuthState         = errors.New("oauth state mismatch")
	ErrNoEmail            = errors.New("google account has no verified email")
)

// CookieName is the session cookie set after login.
const CookieName = "eb_session"

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=120"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput is the password login form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GameDefaults installs the starter action grid and leaderboards for a coach.
type GameDefaults interface {
	HasActions(ctx context.Context, ownerID int64) (bool, error)
	InstallDefaults(ctx context.Context, ownerID int64) error
	InstallDefaultsTx(ctx context.Context, tx *sql.Tx, ownerID int64) error
}
