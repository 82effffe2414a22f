package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// New creates a new PlanStore.
func New(db *sql.DB) PlanStore {
	return &store{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectPlan = `SELECT id, name, plan_date, team_name, notes, user_id, structure, is_public FROM training_plans`

func scanPlan(row interface{ Scan(...any) error }) (Plan, error) {
	var (
		p    Plan
		date int64
	)
	if err := row.Scan(&p.ID, &p.Name, &date, &p.TeamName, &p.Notes, &p.OwnerID, &p.Structure, &p.IsPublic); err != nil {
		return p, err
	}
	p.Date = time.Unix(date, 0).UTC()
	p.Items = []Item{}
	return p, nil
}

func getPlan(ctx context.Context, q querier, id int64) (*Plan, error) {
	p, err := scanPlan(q.QueryRowContext(ctx, selectPlan+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &p, nil
}

// ownedPlan loads a plan the caller owns.
func ownedPlan(ctx context.Context, q querier, actor identity.Identity, id int64) (*Plan, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	p, err := getPlan(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actor.UserID {
		return nil, identity.ErrForbidden
	}
	return p, nil
}

func normalizeStructure(blocks string) string {
	return strings.Join(ParseBlocks(blocks), ",")
}

// Create adds a plan and remembers its block layout as the owner's default for the next plan.
func (s *store) Create(ctx context.Context, actor identity.Identity, in Input) (*Plan, error) {
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

	p := Plan{
		Name:      strings.TrimSpace(in.Name),
		Date:      in.date(),
		TeamName:  in.TeamName,
		Notes:     in.Notes,
		OwnerID:   actor.UserID,
		Structure: normalizeStructure(in.Blocks),
		IsPublic:  in.IsPublic,
		Items:     []Item{},
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO training_plans (name, plan_date, team_name, notes, structure, is_public, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Date.Unix(), p.TeamName, p.Notes, p.Structure, p.IsPublic, p.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	if err := rememberBlocks(ctx, tx, actor.UserID, p.Structure); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Info("Created plan", "planID", p.ID, "owner", p.OwnerID, "blocks", len(p.Blocks()))
	return &p, nil
}

func rememberBlocks(ctx context.Context, q querier, userID int64, structure string) error {
	if structure == "" {
		return nil
	}
	if _, err := q.ExecContext(ctx, "UPDATE users SET last_blocks_config = ? WHERE id = ?", structure, userID); err != nil {
		return fmt.Errorf("failed to remember blocks: %w", err)
	}
	return nil
}

// ListForOwner returns the caller's plans, newest date first. Items are not loaded.
func (s *store) ListForOwner(ctx context.Context, actor identity.Identity) ([]Plan, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectPlan+" WHERE user_id = ? ORDER BY plan_date DESC, id DESC", actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	plans := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// Get loads a plan with its items in block order. Public plans are readable by anyone logged in.
func (s *store) Get(ctx context.Context, actor identity.Identity, id int64) (*Plan, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := getPlan(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actor.UserID && !p.IsPublic {
		return nil, identity.ErrForbidden
	}
	if err := loadItems(ctx, s.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func loadItems(ctx context.Context, q querier, p *Plan) error {
	rows, err := q.QueryContext(ctx, `
		SELECT i.id, i.plan_id, i.drill_id, d.title, i.block_name, i.item_order, i.duration
		FROM training_items i
		JOIN drills d ON d.id = i.drill_id
		WHERE i.plan_id = ?`, p.ID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	p.Items = []Item{}
	p.TotalMinutes = 0
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.PlanID, &it.DrillID, &it.DrillTitle, &it.BlockName, &it.Order, &it.Duration); err != nil {
			return err
		}
		p.Items = append(p.Items, it)
		p.TotalMinutes += it.Duration
	}
	if err := rows.Err(); err != nil {
		return err
	}
	SortItems(p.Items, p.Blocks())
	return nil
}

// SortItems orders items by their block's position in the plan, then by order and id.
// Items of blocks missing from the structure go last.
func SortItems(items []Item, blocks []string) {
	rank := make(map[string]int, len(blocks))
	for i, b := range blocks {
		rank[b] = i
	}
	pos := func(b string) int {
		if r, ok := rank[b]; ok {
			return r
		}
		return len(blocks)
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if pa, pb := pos(a.BlockName), pos(b.BlockName); pa != pb {
			return pa < pb
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
}

func (s *store) Update(ctx context.Context, actor identity.Identity, id int64, in Input) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := ownedPlan(ctx, tx, actor, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(in.Name)
	if in.Date != "" {
		p.Date = in.date()
	}
	p.TeamName = in.TeamName
	p.Notes = in.Notes
	p.Structure = normalizeStructure(in.Blocks)
	p.IsPublic = in.IsPublic

	_, err = tx.ExecContext(ctx, `
		UPDATE training_plans SET name = ?, plan_date = ?, team_name = ?, notes = ?, structure = ?, is_public = ?
		WHERE id = ?`, p.Name, p.Date.Unix(), p.TeamName, p.Notes, p.Structure, p.IsPublic, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	if err := rememberBlocks(ctx, tx, actor.UserID, p.Structure); err != nil {
		return nil, err
	}
	if err := loadItems(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *store) Delete(ctx context.Context, actor identity.Identity, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := ownedPlan(ctx, s.db, actor, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM training_plans WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	log.Info("Deleted plan", "planID", id, "by", actor.UserID)
	return nil
}

// Duplicate copies a plan and its items as a private plan dated today.
func (s *store) Duplicate(ctx context.Context, actor identity.Identity, id int64) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	src, err := ownedPlan(ctx, tx, actor, id)
	if err != nil {
		return nil, err
	}
	cp := *src
	cp.Name = src.Name + " (Copia)"
	cp.Date = time.Now()
	cp.IsPublic = false
	res, err := tx.ExecContext(ctx, `
		INSERT INTO training_plans (name, plan_date, team_name, notes, structure, is_public, user_id)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		cp.Name, cp.Date.Unix(), cp.TeamName, cp.Notes, cp.Structure, cp.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate plan: %w", err)
	}
	if cp.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO training_items (plan_id, drill_id, block_name, item_order, duration)
		SELECT ?, drill_id, block_name, item_order, duration FROM training_items WHERE plan_id = ? ORDER BY id`,
		cp.ID, src.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to copy items: %w", err)
	}
	if err := loadItems(ctx, tx, &cp); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &cp, nil
}

// AddItem appends a drill at the end of a block with the default duration.
func (s *store) AddItem(ctx context.Context, actor identity.Identity, planID, drillID int64, block string) (*Item, error) {
	block = strings.TrimSpace(block)
	if block == "" {
		return nil, ErrEmptyBlock
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := ownedPlan(ctx, tx, actor, planID); err != nil {
		return nil, err
	}

	it := Item{PlanID: planID, DrillID: drillID, BlockName: block, Duration: DefaultItemDuration}
	var (
		isPublic bool
		ownerID  int64
	)
	err = tx.QueryRowContext(ctx, "SELECT title, is_public, user_id FROM drills WHERE id = ?", drillID).Scan(&it.DrillTitle, &isPublic, &ownerID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !isPublic && ownerID != actor.UserID) {
		return nil, ErrDrillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(item_order), 0) + 1 FROM training_items WHERE plan_id = ? AND block_name = ?",
		planID, block).Scan(&it.Order)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO training_items (plan_id, drill_id, block_name, item_order, duration) VALUES (?, ?, ?, ?, ?)`,
		it.PlanID, it.DrillID, it.BlockName, it.Order, it.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}
	if it.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &it, nil
}

// ownedItem returns the plan id of an item whose plan the caller owns.
func ownedItem(ctx context.Context, q querier, actor identity.Identity, itemID int64) (int64, error) {
	var planID int64
	err := q.QueryRowContext(ctx, "SELECT plan_id FROM training_items WHERE id = ?", itemID).Scan(&planID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	if _, err := ownedPlan(ctx, q, actor, planID); err != nil {
		return 0, err
	}
	return planID, nil
}

func (s *store) UpdateItemDuration(ctx context.Context, actor identity.Identity, itemID int64, minutes int) error {
	if minutes < MinItemDuration || minutes > MaxItemDuration {
		return ErrInvalidDuration
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := ownedItem(ctx, s.db, actor, itemID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE training_items SET duration = ? WHERE id = ?", minutes, itemID); err != nil {
		return fmt.Errorf("failed to update duration: %w", err)
	}
	return nil
}

// DeleteItem removes an item and returns the id of its plan.
func (s *store) DeleteItem(ctx context.Context, actor identity.Identity, itemID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	planID, err := ownedItem(ctx, s.db, actor, itemID)
	if err != nil {
		return 0, err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM training_items WHERE id = ?", itemID); err != nil {
		return 0, fmt.Errorf("failed to delete item: %w", err)
	}
	return planID, nil
}
