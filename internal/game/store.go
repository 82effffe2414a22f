package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
)

// New creates a new GameStore.
func New(db *sql.DB) GameStore {
	return &store{db: db}
}

const selectAction = `SELECT id, user_id, name, value, is_positive, section, score_value, color, grid_row, grid_col FROM action_definitions`

func scanAction(scanner interface{ Scan(...any) error }) (Action, error) {
	var a Action
	err := scanner.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Value, &a.IsPositive, &a.Section, &a.ScoreValue, &a.Color, &a.Row, &a.Col)
	return a, err
}

func (s *store) ListActions(ctx context.Context, ownerID int64) ([]Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listActions(ctx, s.db, ownerID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func listActions(ctx context.Context, q querier, ownerID int64) ([]Action, error) {
	rows, err := q.QueryContext(ctx, selectAction+`
		WHERE user_id = ?
		ORDER BY is_positive DESC, section DESC, grid_row, grid_col`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	actions := []Action{}
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (s *store) GetAction(ctx context.Context, actor identity.Identity, id int64) (*Action, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := scanAction(s.db.QueryRowContext(ctx, selectAction+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !actor.OwnsOrAdmin(a.OwnerID) {
		return nil, identity.ErrForbidden
	}
	return &a, nil
}

// CreateAction adds an action to the caller's tracker. Without an explicit position it takes the
// first free cell of its block.
func (s *store) CreateAction(ctx context.Context, actor identity.Identity, in ActionInput) (*Action, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing, err := listActions(ctx, tx, actor.UserID)
	if err != nil {
		return nil, err
	}
	layout := NewLayout(existing)

	a := Action{OwnerID: actor.UserID}
	applyInput(&a, in)
	cell := layout.FirstFree(Block{Section: a.Section, Positive: a.IsPositive})
	if in.Row != nil && in.Col != nil {
		cell.Row, cell.Col = *in.Row, *in.Col
	}
	if err := layout.Place(0, cell); err != nil {
		return nil, err
	}
	a.Row, a.Col = cell.Row, cell.Col

	if err := insertAction(ctx, tx, &a); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Debug("Created action", "actionID", a.ID, "owner", a.OwnerID, "cell", cell)
	return &a, nil
}

func applyInput(a *Action, in ActionInput) {
	a.Name = in.Name
	a.Value = in.Value
	a.IsPositive = in.IsPositive
	a.Section = in.Section
	if a.Section != scoring.SectionDefense {
		a.Section = scoring.SectionOffense
	}
	a.ScoreValue = in.ScoreValue
	a.Color = in.Color
	if a.Color == "" {
		a.Color = "#6c757d"
	}
}

func insertAction(ctx context.Context, q querier, a *Action) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO action_definitions (user_id, name, value, is_positive, section, score_value, color, grid_row, grid_col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.OwnerID, a.Name, a.Value, a.IsPositive, a.Section, a.ScoreValue, a.Color, a.Row, a.Col,
	)
	if err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// UpdateAction edits an action. Moving it to another section or polarity places it in the first
// free cell of the new block.
func (s *store) UpdateAction(ctx context.Context, actor identity.Identity, id int64, in ActionInput) (*Action, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	a, err := scanAction(tx.QueryRowContext(ctx, selectAction+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !actor.OwnsOrAdmin(a.OwnerID) {
		return nil, identity.ErrForbidden
	}

	before := a.Cell().Block()
	applyInput(&a, in)
	if after := a.Cell().Block(); after != before {
		existing, err := listActions(ctx, tx, a.OwnerID)
		if err != nil {
			return nil, err
		}
		layout := NewLayout(existing)
		layout.Remove(a.ID)
		cell := layout.FirstFree(after)
		a.Row, a.Col = cell.Row, cell.Col
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE action_definitions
		SET name = ?, value = ?, is_positive = ?, section = ?, score_value = ?, color = ?, grid_row = ?, grid_col = ?
		WHERE id = ?`,
		a.Name, a.Value, a.IsPositive, a.Section, a.ScoreValue, a.Color, a.Row, a.Col, a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update action: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &a, nil
}

// MoveAction moves an action to another cell of its block and returns the owner's actions
// after the move.
func (s *store) MoveAction(ctx context.Context, actor identity.Identity, id int64, row, col int, swap bool) ([]Action, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.QueryRowContext(ctx, "SELECT user_id FROM action_definitions WHERE id = ?", id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !actor.OwnsOrAdmin(ownerID) {
		return nil, identity.ErrForbidden
	}

	existing, err := listActions(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}
	layout := NewLayout(existing)
	from, _ := layout.CellOf(id)
	target := Cell{Section: from.Section, Positive: from.Positive, Row: row, Col: col}

	if _, err := layout.Move(id, target, swap); err != nil {
		return nil, err
	}
	// Changes also carries any stale positions healed by NewLayout.
	if err := applyPlacements(ctx, tx, layout.Changes()); err != nil {
		return nil, err
	}

	actions, err := listActions(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Debug("Moved action", "actionID", id, "target", target, "swap", swap)
	return actions, nil
}

// applyPlacements writes cells in two passes. Every affected row is parked on a unique negative
// row first so the unique grid index never sees two actions in one cell.
func applyPlacements(ctx context.Context, tx *sql.Tx, placements []Placement) error {
	final := make(map[int64]Cell, len(placements))
	var order []int64
	for _, p := range placements {
		if _, seen := final[p.ActionID]; !seen {
			order = append(order, p.ActionID)
		}
		final[p.ActionID] = p.Cell
	}

	for _, id := range order {
		if _, err := tx.ExecContext(ctx, "UPDATE action_definitions SET grid_row = ? WHERE id = ?", -id, id); err != nil {
			return fmt.Errorf("failed to park action %d: %w", id, err)
		}
	}
	for _, id := range order {
		c := final[id]
		_, err := tx.ExecContext(ctx, `
			UPDATE action_definitions SET section = ?, is_positive = ?, grid_row = ?, grid_col = ? WHERE id = ?`,
			c.Section, c.Positive, c.Row, c.Col, id)
		if err != nil {
			return fmt.Errorf("failed to place action %d: %w", id, err)
		}
	}
	return nil
}

// DeleteAction removes an action that was never recorded in a match.
func (s *store) DeleteAction(ctx context.Context, actor identity.Identity, id int64) error {
	if err := actor.Require(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ownerID int64
	err := s.db.QueryRowContext(ctx, "SELECT user_id FROM action_definitions WHERE id = ?", id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if !actor.OwnsOrAdmin(ownerID) {
		return identity.ErrForbidden
	}

	var used int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM match_events WHERE action_id = ?", id).Scan(&used); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if used > 0 {
		return ErrActionInUse
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM action_definitions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete action: %w", err)
	}
	log.Info("Deleted action", "actionID", id, "owner", ownerID)
	return nil
}

// UpdateValues sets the weight of several of the caller's actions at once. Unknown ids are ignored.
func (s *store) UpdateValues(ctx context.Context, actor identity.Identity, values map[int64]float64) error {
	if err := actor.Require(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE action_definitions SET value = ? WHERE id = ? AND user_id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id, value := range values {
		if _, err := stmt.ExecContext(ctx, value, id, actor.UserID); err != nil {
			return fmt.Errorf("failed to update value of action %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// Normalize persists the collision-free layout of the caller's actions and returns how many
// actions moved.
func (s *store) Normalize(ctx context.Context, actor identity.Identity) (int, error) {
	if err := actor.Require(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	existing, err := listActions(ctx, tx, actor.UserID)
	if err != nil {
		return 0, err
	}
	changes := NewLayout(existing).Changes()
	if len(changes) == 0 {
		return 0, nil
	}
	if err := applyPlacements(ctx, tx, changes); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Info("Normalized action grid", "owner", actor.UserID, "moved", len(changes))
	return len(changes), nil
}

func (s *store) HasActions(ctx context.Context, ownerID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM action_definitions WHERE user_id = ?", ownerID).Scan(&n); err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return n > 0, nil
}
