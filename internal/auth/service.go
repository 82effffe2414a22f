package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/user"
)

// Service registers and logs in coaches. Registration is open only to invited emails.
type Service struct {
	db    *sql.DB
	users user.UserStore
	games GameDefaults
}

// NewService creates an auth Service. New accounts and their defaults are written in one
// transaction on db.
func NewService(db *sql.DB, users user.UserStore, games GameDefaults) *Service {
	return &Service{db: db, users: users, games: games}
}

func (s *Service) identityOf(u *user.User) identity.Identity {
	return identity.Identity{
		UserID:  u.ID,
		Email:   u.Email,
		Name:    u.Name,
		IsAdmin: u.IsAdmin || s.users.IsAdminEmail(u.Email),
	}
}

func (s *Service) ensureDefaults(ctx context.Context, userID int64) error {
	has, err := s.games.HasActions(ctx, userID)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return s.games.InstallDefaults(ctx, userID)
}

func (s *Service) create(ctx context.Context, email, name, hash string) (*user.User, error) {
	invited, err := s.users.IsInvited(ctx, email)
	if err != nil {
		return nil, err
	}
	if !invited {
		log.Warn("Registration refused, email not invited", "email", email)
		return nil, ErrNotInvited
	}

	u := &user.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		IsAdmin:      s.users.IsAdminEmail(email),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.users.CreateTx(ctx, tx, u); err != nil {
		return nil, err
	}
	if err := s.games.InstallDefaultsTx(ctx, tx, u.ID); err != nil {
		return nil, fmt.Errorf("failed to install game defaults: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Info("Created user", "userID", u.ID, "email", u.Email, "admin", u.IsAdmin)
	return u, nil
}

// Register creates a password account for an invited email.
func (s *Service) Register(ctx context.Context, in RegisterInput) (identity.Identity, error) {
	email := user.NormalizeEmail(in.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return identity.Identity{}, ErrEmailTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return identity.Identity{}, err
	}

	hash, err := user.HashPassword(in.Password)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}
	u, err := s.create(ctx, email, in.Name, hash)
	if err != nil {
		return identity.Identity{}, err
	}
	log.Info("User registered", "userID", u.ID, "email", u.Email)
	return s.identityOf(u), nil
}

// Login checks a password. Coaches without an action grid get the defaults.
func (s *Service) Login(ctx context.Context, in LoginInput) (identity.Identity, error) {
	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, user.ErrNotFound) {
		return identity.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return identity.Identity{}, err
	}
	if err := u.CheckPassword(in.Password); err != nil {
		return identity.Identity{}, ErrInvalidCredentials
	}
	if err := s.ensureDefaults(ctx, u.ID); err != nil {
		return identity.Identity{}, fmt.Errorf("failed to install game defaults: %w", err)
	}
	log.Info("User logged in", "userID", u.ID, "method", "password")
	return s.identityOf(u), nil
}

// LoginOAuth logs in a Google account, creating a password-less user on first login
// when the email is invited.
func (s *Service) LoginOAuth(ctx context.Context, email, name string) (identity.Identity, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return identity.Identity{}, ErrNoEmail
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		if name == "" {
			name = strings.Split(email, "@")[0]
		}
		if u, err = s.create(ctx, email, name, ""); err != nil {
			return identity.Identity{}, err
		}
		log.Info("User provisioned from Google", "userID", u.ID, "email", email)
	case err != nil:
		return identity.Identity{}, err
	default:
		if err := s.ensureDefaults(ctx, u.ID); err != nil {
			return identity.Identity{}, fmt.Errorf("failed to install game defaults: %w", err)
		}
	}
	log.Info("User logged in", "userID", u.ID, "method", "google")
	return s.identityOf(u), nil
}

// Refresh reloads the caller from the database so renamed or promoted users see the
// change without logging in again.
func (s *Service) Refresh(ctx context.Context, id identity.Identity) (identity.Identity, error) {
	u, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return identity.Identity{}, err
	}
	return s.identityOf(u), nil
}
