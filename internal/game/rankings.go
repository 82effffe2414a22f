package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

func (s *store) ListRankings(ctx context.Context, ownerID int64) ([]Ranking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, user_id, name, icon, context FROM ranking_definitions WHERE user_id = ? ORDER BY id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	rankings := []Ranking{}
	index := make(map[int64]int)
	for rows.Next() {
		var r Ranking
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Name, &r.Icon, &r.Context); err != nil {
			rows.Close()
			return nil, err
		}
		r.ActionIDs = []int64{}
		index[r.ID] = len(rankings)
		rankings = append(rankings, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Second cursor only after the first is closed: local databases use one connection.
	ingRows, err := s.db.QueryContext(ctx, `
		SELECT ri.ranking_id, ri.action_id
		FROM ranking_ingredients ri
		JOIN ranking_definitions rd ON rd.id = ri.ranking_id
		WHERE rd.user_id = ?
		ORDER BY ri.ranking_id, ri.action_id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer ingRows.Close()
	for ingRows.Next() {
		var rankingID, actionID int64
		if err := ingRows.Scan(&rankingID, &actionID); err != nil {
			return nil, err
		}
		if i, ok := index[rankingID]; ok {
			rankings[i].ActionIDs = append(rankings[i].ActionIDs, actionID)
		}
	}
	return rankings, ingRows.Err()
}

func (s *store) GetRanking(ctx context.Context, actor identity.Identity, id int64) (*Ranking, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRanking(ctx, s.db, actor, id)
}

func getRanking(ctx context.Context, q querier, actor identity.Identity, id int64) (*Ranking, error) {
	var r Ranking
	err := q.QueryRowContext(ctx, "SELECT id, user_id, name, icon, context FROM ranking_definitions WHERE id = ?", id).
		Scan(&r.ID, &r.OwnerID, &r.Name, &r.Icon, &r.Context)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !actor.OwnsOrAdmin(r.OwnerID) {
		return nil, identity.ErrForbidden
	}

	rows, err := q.QueryContext(ctx, "SELECT action_id FROM ranking_ingredients WHERE ranking_id = ? ORDER BY action_id", id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()
	r.ActionIDs = []int64{}
	for rows.Next() {
		var actionID int64
		if err := rows.Scan(&actionID); err != nil {
			return nil, err
		}
		r.ActionIDs = append(r.ActionIDs, actionID)
	}
	return &r, rows.Err()
}

func (s *store) CreateRanking(ctx context.Context, actor identity.Identity, in RankingInput) (*Ranking, error) {
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

	r := Ranking{OwnerID: actor.UserID}
	applyRankingInput(&r, in)
	res, err := tx.ExecContext(ctx, "INSERT INTO ranking_definitions (user_id, name, icon, context) VALUES (?, ?, ?, ?)",
		r.OwnerID, r.Name, r.Icon, r.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to create ranking: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	if err := replaceIngredients(ctx, tx, r.ID, r.OwnerID, r.ActionIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Info("Created ranking", "rankingID", r.ID, "name", r.Name, "ingredients", len(r.ActionIDs))
	return &r, nil
}

func (s *store) UpdateRanking(ctx context.Context, actor identity.Identity, id int64, in RankingInput) (*Ranking, error) {
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

	r, err := getRanking(ctx, tx, actor, id)
	if err != nil {
		return nil, err
	}
	applyRankingInput(r, in)
	if _, err := tx.ExecContext(ctx, "UPDATE ranking_definitions SET name = ?, icon = ?, context = ? WHERE id = ?",
		r.Name, r.Icon, r.Context, r.ID); err != nil {
		return nil, fmt.Errorf("failed to update ranking: %w", err)
	}
	if err := replaceIngredients(ctx, tx, r.ID, r.OwnerID, r.ActionIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r, nil
}

func applyRankingInput(r *Ranking, in RankingInput) {
	r.Name = in.Name
	r.Icon = in.Icon
	if r.Icon == "" {
		r.Icon = "trophy"
	}
	r.Context = RankingContext(in.Context)
	if r.Context != ContextSession {
		r.Context = ContextMatch
	}
	seen := make(map[int64]bool, len(in.ActionIDs))
	r.ActionIDs = []int64{}
	for _, id := range in.ActionIDs {
		if !seen[id] {
			seen[id] = true
			r.ActionIDs = append(r.ActionIDs, id)
		}
	}
}

// replaceIngredients swaps the ingredient set of a ranking. Every action must belong to ownerID.
func replaceIngredients(ctx context.Context, tx *sql.Tx, rankingID, ownerID int64, actionIDs []int64) error {
	for _, actionID := range actionIDs {
		var owner int64
		err := tx.QueryRowContext(ctx, "SELECT user_id FROM action_definitions WHERE id = ?", actionID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != ownerID) {
			return fmt.Errorf("action %d: %w", actionID, ErrForeignAction)
		}
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM ranking_ingredients WHERE ranking_id = ?", rankingID); err != nil {
		return fmt.Errorf("failed to clear ingredients: %w", err)
	}
	for _, actionID := range actionIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO ranking_ingredients (ranking_id, action_id) VALUES (?, ?)", rankingID, actionID); err != nil {
			return fmt.Errorf("failed to add ingredient: %w", err)
		}
	}
	return nil
}

func (s *store) DeleteRanking(ctx context.Context, actor identity.Identity, id int64) error {
	if err := actor.Require(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ownerID int64
	err := s.db.QueryRowContext(ctx, "SELECT user_id FROM ranking_definitions WHERE id = ?", id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if !actor.OwnsOrAdmin(ownerID) {
		return identity.ErrForbidden
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM ranking_definitions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete ranking: %w", err)
	}
	return nil
}
