package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/user"
)

const selectStaff = "SELECT " + staffColumns + " FROM team_staff s JOIN teams t ON t.id = s.team_id"

func getStaff(ctx context.Context, q querier, staffID int64) (*Staff, error) {
	st, err := mapStaff(q.QueryRowContext(ctx, selectStaff+" WHERE s.id = ?", staffID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &st, nil
}

func setStatus(ctx context.Context, q querier, st *Staff, to StaffStatus, userID sql.NullInt64) error {
	if !CanTransition(st.Status, to) {
		return fmt.Errorf("%s -> %s: %w", st.Status, to, ErrInvalidTransition)
	}
	now := time.Now()
	_, err := q.ExecContext(ctx, "UPDATE team_staff SET status = ?, user_id = ?, updated_at = ? WHERE id = ?",
		to, userID, now.Unix(), st.ID)
	if err != nil {
		return fmt.Errorf("failed to update staff: %w", err)
	}
	log.Info("Staff status changed", "staffID", st.ID, "teamID", st.TeamID, "from", st.Status, "to", to)
	st.Status = to
	st.UserID = userID.Int64
	st.UpdatedAt = now
	return nil
}

// Invite asks an email to join a team as staff. A previously removed invitation is reopened.
func (s *store) Invite(ctx context.Context, actor identity.Identity, teamID int64, email, role string) (*Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := requireOwner(ctx, s.db, actor, teamID); err != nil {
		return nil, err
	}
	email = user.NormalizeEmail(email)
	if email == user.NormalizeEmail(actor.Email) {
		return nil, ErrSelfInvite
	}
	if role == "" {
		role = "assistant"
	}

	var staffID int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM team_staff WHERE team_id = ? AND email = ?", teamID, email).Scan(&staffID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO team_staff (team_id, email, role, status, updated_at) VALUES (?, ?, ?, ?, ?)`,
			teamID, email, role, StaffPending, time.Now().Unix())
		if err != nil {
			return nil, fmt.Errorf("failed to invite staff: %w", err)
		}
		if staffID, err = res.LastInsertId(); err != nil {
			return nil, err
		}
		log.Info("Staff invited", "teamID", teamID, "email", email)
		return getStaff(ctx, s.db, staffID)
	case err != nil:
		return nil, fmt.Errorf("database error: %w", err)
	}

	st, err := getStaff(ctx, s.db, staffID)
	if err != nil {
		return nil, err
	}
	if st.Status != StaffRemoved {
		return nil, ErrAlreadyInvited
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE team_staff SET role = ? WHERE id = ?", role, st.ID); err != nil {
		return nil, fmt.Errorf("failed to update staff: %w", err)
	}
	st.Role = role
	if err := setStatus(ctx, s.db, st, StaffPending, sql.NullInt64{}); err != nil {
		return nil, err
	}
	return st, nil
}

// inviteForActor loads a staff row addressed to the caller's email.
func inviteForActor(ctx context.Context, q querier, actor identity.Identity, staffID int64) (*Staff, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	st, err := getStaff(ctx, q, staffID)
	if err != nil {
		return nil, err
	}
	if st.Email != user.NormalizeEmail(actor.Email) {
		return nil, identity.ErrForbidden
	}
	return st, nil
}

func (s *store) AcceptInvite(ctx context.Context, actor identity.Identity, staffID int64) (*Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := inviteForActor(ctx, s.db, actor, staffID)
	if err != nil {
		return nil, err
	}
	if err := setStatus(ctx, s.db, st, StaffAccepted, sql.NullInt64{Int64: actor.UserID, Valid: true}); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *store) RejectInvite(ctx context.Context, actor identity.Identity, staffID int64) (*Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := inviteForActor(ctx, s.db, actor, staffID)
	if err != nil {
		return nil, err
	}
	if st.Status != StaffPending {
		return nil, fmt.Errorf("%s -> %s: %w", st.Status, StaffRemoved, ErrInvalidTransition)
	}
	if err := setStatus(ctx, s.db, st, StaffRemoved, sql.NullInt64{}); err != nil {
		return nil, err
	}
	return st, nil
}

// RemoveStaff revokes a pending or accepted staff member. Owner only.
func (s *store) RemoveStaff(ctx context.Context, actor identity.Identity, staffID int64) (*Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := getStaff(ctx, s.db, staffID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(ctx, s.db, actor, st.TeamID); err != nil {
		return nil, err
	}
	if err := setStatus(ctx, s.db, st, StaffRemoved, sql.NullInt64{}); err != nil {
		return nil, err
	}
	return st, nil
}

// ListStaff returns the live staff rows of a team.
func (s *store) ListStaff(ctx context.Context, actor identity.Identity, teamID int64) ([]Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := requireAccess(ctx, s.db, actor, teamID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, selectStaff+" WHERE s.team_id = ? AND s.status != ? ORDER BY s.email", teamID, StaffRemoved)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return mapStaffRows(rows)
}

// PendingInvites lists the invitations waiting for the caller's answer.
func (s *store) PendingInvites(ctx context.Context, actor identity.Identity) ([]Staff, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectStaff+" WHERE s.email = ? AND s.status = ? ORDER BY s.updated_at DESC, s.id",
		user.NormalizeEmail(actor.Email), StaffPending)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return mapStaffRows(rows)
}
