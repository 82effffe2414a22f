package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// New creates a new UserStore. adminEmail is always allowed to register and becomes an administrator.
func New(db *sql.DB, adminEmail string) UserStore {
	return &store{
		db:         db,
		adminEmail: NormalizeEmail(adminEmail),
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *store) IsAdminEmail(email string) bool {
	return s.adminEmail != "" && NormalizeEmail(email) == s.adminEmail
}

// Create inserts a user and sets its ID. The email must not be registered yet.
func (s *store) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.CreateTx(ctx, tx, u); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info("Created user", "userID", u.ID, "email", u.Email, "admin", u.IsAdmin)
	return nil
}

// CreateTx inserts a user inside the caller's transaction. The caller commits.
func (s *store) CreateTx(ctx context.Context, tx *sql.Tx, u *User) error {
	u.Email = NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE email = ?", u.Email).Scan(&exists)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("database error: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (email, name, password_hash, is_admin, last_blocks_config, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.Name, nullString(u.PasswordHash), u.IsAdmin, u.LastBlocksConfig, u.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *store) GetByID(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanUser(s.db.QueryRowContext(ctx, selectUser+" WHERE id = ?", id))
}

func (s *store) GetByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanUser(s.db.QueryRowContext(ctx, selectUser+" WHERE email = ?", NormalizeEmail(email)))
}

const selectUser = `SELECT id, email, name, password_hash, is_admin, last_blocks_config, created_at FROM users`

func (s *store) scanUser(scanner interface{ Scan(...any) error }) (*User, error) {
	var (
		u         User
		hash      sql.NullString
		createdAt int64
	)
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &hash, &u.IsAdmin, &u.LastBlocksConfig, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	u.PasswordHash = hash.String
	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

func (s *store) SetPassword(ctx context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execOne(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
}

func (s *store) SetLastBlocksConfig(ctx context.Context, id int64, blocks string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execOne(ctx, "UPDATE users SET last_blocks_config = ? WHERE id = ?", blocks, id)
}

func (s *store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsInvited reports whether an email may create an account: the admin address, an explicit
// invitation, or a live staff invitation to any team.
func (s *store) IsInvited(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	if s.IsAdminEmail(email) {
		return true, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM invitations WHERE email = ?
		UNION
		SELECT 1 FROM team_staff WHERE lower(email) = ? AND status != 'removed'
		LIMIT 1`, email, email).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return true, nil
}

// Invite adds an email to the registration allow-list. Inviting twice is a no-op.
func (s *store) Invite(ctx context.Context, actor identity.Identity, email string) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (email, invited_by, created_at) VALUES (?, ?, ?)
		ON CONFLICT(email) DO NOTHING`, NormalizeEmail(email), actor.UserID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to invite: %w", err)
	}
	log.Info("Invitation created", "email", email, "by", actor.UserID)
	return nil
}

func (s *store) ListInvitations(ctx context.Context, actor identity.Identity) ([]Invitation, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT email, invited_by, created_at FROM invitations ORDER BY created_at DESC, email")
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	invitations := []Invitation{}
	for rows.Next() {
		var (
			inv       Invitation
			invitedBy sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&inv.Email, &invitedBy, &createdAt); err != nil {
			return nil, err
		}
		inv.InvitedBy = invitedBy.Int64
		inv.CreatedAt = time.Unix(createdAt, 0)
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (s *store) DeleteInvitation(ctx context.Context, actor identity.Identity, email string) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execOne(ctx, "DELETE FROM invitations WHERE email = ?", NormalizeEmail(email))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
