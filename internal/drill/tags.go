package drill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

func (s *store) ListTags(ctx context.Context) ([]Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM tags ORDER BY name COLLATE NOCASE")
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *store) CreateTag(ctx context.Context, actor identity.Identity, name string) (*Tag, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTag
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := findTag(ctx, s.db, name); err == nil {
		return nil, ErrTagExists
	} else if !errors.Is(err, ErrTagNotFound) {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	log.Info("Created tag", "tagID", id, "name", name)
	return &Tag{ID: id, Name: name}, nil
}

func findTag(ctx context.Context, q querier, name string) (*Tag, error) {
	var t Tag
	err := q.QueryRowContext(ctx, "SELECT id, name FROM tags WHERE name = ?", name).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &t, nil
}

func (s *store) DeleteTag(ctx context.Context, actor identity.Identity, id int64) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTagNotFound
	}
	return nil
}
