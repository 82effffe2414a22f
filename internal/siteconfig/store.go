package siteconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// New creates a new ConfigStore.
func New(db *sql.DB) ConfigStore {
	return &store{db: db}
}

func (s *store) raw(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM site_config")
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		values[k] = v
	}
	return values, rows.Err()
}

func (s *store) All(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, err := s.raw(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range values {
		values[k] = URL(v)
	}
	return values, nil
}

// Entries lists every known key, including those without a value.
func (s *store) Entries(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, err := s.raw(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(Keys))
	for i, k := range Keys {
		entries[i] = Entry{Key: k, Value: values[k.Name], URL: URL(values[k.Name])}
	}
	return entries, nil
}

func (s *store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM site_config WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}
	return v, nil
}

// Set stores a value and returns the one it replaced, so callers can clean up old uploads.
func (s *store) Set(ctx context.Context, actor identity.Identity, key, value string) (string, error) {
	if err := actor.RequireAdmin(); err != nil {
		return "", err
	}
	if !IsKnown(key) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	previous, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO site_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return "", fmt.Errorf("failed to save site config: %w", err)
	}
	log.Info("Site config updated", "key", key, "by", actor.Email)
	return previous, nil
}

// SeedDefaults inserts Defaults for keys that are still unset and reports how many it wrote.
func (s *store) SeedDefaults(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := 0
	for _, k := range Keys {
		res, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO site_config (key, value) VALUES (?, ?)", k.Name, Defaults[k.Name])
		if err != nil {
			return seeded, fmt.Errorf("failed to seed site config: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			seeded++
		}
	}
	return seeded, nil
}
