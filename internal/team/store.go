package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/user"
)

// New creates a new TeamStore.
func New(db *sql.DB) TeamStore {
	return &store{db: db}
}

// access resolves the caller's relation to a team: owner, accepted staff, or neither.
func access(ctx context.Context, q querier, actor identity.Identity, teamID int64) (owner bool, staff bool, err error) {
	var ownerID int64
	err = q.QueryRowContext(ctx, "SELECT user_id FROM teams WHERE id = ?", teamID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, ErrNotFound
	}
	if err != nil {
		return false, false, fmt.Errorf("database error: %w", err)
	}
	if actor.Anonymous() {
		return false, false, nil
	}
	if ownerID == actor.UserID {
		return true, false, nil
	}

	var found int
	err = q.QueryRowContext(ctx, `
		SELECT 1 FROM team_staff WHERE team_id = ? AND email = ? AND status = ?`,
		teamID, user.NormalizeEmail(actor.Email), StaffAccepted).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("database error: %w", err)
	}
	return false, true, nil
}

func requireAccess(ctx context.Context, q querier, actor identity.Identity, teamID int64) error {
	if err := actor.Require(); err != nil {
		return err
	}
	owner, staff, err := access(ctx, q, actor, teamID)
	if err != nil {
		return err
	}
	if !owner && !staff {
		return identity.ErrForbidden
	}
	return nil
}

func requireOwner(ctx context.Context, q querier, actor identity.Identity, teamID int64) error {
	if err := actor.Require(); err != nil {
		return err
	}
	owner, _, err := access(ctx, q, actor, teamID)
	if err != nil {
		return err
	}
	if !owner {
		return identity.ErrForbidden
	}
	return nil
}

// CanAccess reports whether the caller owns the team or is accepted staff.
func (s *store) CanAccess(ctx context.Context, actor identity.Identity, teamID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, staff, err := access(ctx, s.db, actor, teamID)
	return owner || staff, err
}

func (s *store) RequireAccess(ctx context.Context, actor identity.Identity, teamID int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return requireAccess(ctx, s.db, actor, teamID)
}

func (s *store) RequireOwner(ctx context.Context, actor identity.Identity, teamID int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return requireOwner(ctx, s.db, actor, teamID)
}

func (s *store) Create(ctx context.Context, actor identity.Identity, in TeamInput) (*Team, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Team{
		Name:       in.Name,
		Category:   in.Category,
		OwnerID:    actor.UserID,
		IsOwner:    true,
		Visibility: scoring.DefaultVisibility(),
		CreatedAt:  time.Now(),
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (name, category, user_id, visibility_mode, visibility_top_x, visibility_top_pct, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Category, t.OwnerID, t.Visibility.Mode, t.Visibility.TopX, t.Visibility.TopPct, t.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	log.Info("Created team", "teamID", t.ID, "name", t.Name, "owner", t.OwnerID)
	return &t, nil
}

// ListForUser returns the teams the caller owns or coaches as accepted staff, by name.
func (s *store) ListForUser(ctx context.Context, actor identity.Identity) ([]Team, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+teamColumns+` FROM teams t WHERE t.user_id = ?
		UNION
		SELECT `+teamColumns+` FROM teams t
		JOIN team_staff s ON s.team_id = t.id
		WHERE s.email = ? AND s.status = ?
		ORDER BY 2, 1`,
		actor.UserID, user.NormalizeEmail(actor.Email), StaffAccepted)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	teams := []Team{}
	for rows.Next() {
		t, err := mapTeam(rows, actor.UserID)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *store) Get(ctx context.Context, actor identity.Identity, id int64) (*Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := requireAccess(ctx, s.db, actor, id); err != nil {
		return nil, err
	}
	return getTeam(ctx, s.db, id, actor.UserID)
}

// GetPublic loads a team without authorization, for the public ranking portal.
func (s *store) GetPublic(ctx context.Context, id int64) (*Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTeam(ctx, s.db, id, 0)
}

func getTeam(ctx context.Context, q querier, id, viewerID int64) (*Team, error) {
	t, err := mapTeam(q.QueryRowContext(ctx, "SELECT "+teamColumns+" FROM teams t WHERE t.id = ?", id), viewerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &t, nil
}

func (s *store) UpdateSettings(ctx context.Context, actor identity.Identity, id int64, in SettingsInput) (*Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := requireOwner(ctx, s.db, actor, id); err != nil {
		return nil, err
	}
	mode := scoring.VisibilityMode(in.Mode)
	if mode != scoring.VisibilityPercent {
		mode = scoring.VisibilityFixed
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE teams SET name = ?, category = ?, visibility_mode = ?, visibility_top_x = ?, visibility_top_pct = ?
		WHERE id = ?`, in.Name, in.Category, mode, in.TopX, in.TopPct, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return getTeam(ctx, s.db, id, actor.UserID)
}

// SetLogo stores a new logo file name and returns the previous one.
func (s *store) SetLogo(ctx context.Context, actor identity.Identity, id int64, file string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := requireOwner(ctx, s.db, actor, id); err != nil {
		return "", err
	}
	var previous string
	if err := s.db.QueryRowContext(ctx, "SELECT logo_file FROM teams WHERE id = ?", id).Scan(&previous); err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE teams SET logo_file = ? WHERE id = ?", file, id); err != nil {
		return "", fmt.Errorf("failed to update logo: %w", err)
	}
	return previous, nil
}

// Delete removes a team with its players, staff, sessions and matches.
func (s *store) Delete(ctx context.Context, actor identity.Identity, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := requireOwner(ctx, s.db, actor, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM teams WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	log.Info("Deleted team", "teamID", id, "by", actor.UserID)
	return nil
}
