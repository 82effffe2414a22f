package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

func (s *store) AddPlayer(ctx context.Context, actor identity.Identity, teamID int64, in PlayerInput) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := requireAccess(ctx, s.db, actor, teamID); err != nil {
		return nil, err
	}
	p := Player{TeamID: teamID, Name: in.Name, Dorsal: in.Dorsal}
	res, err := s.db.ExecContext(ctx, "INSERT INTO players (team_id, name, dorsal) VALUES (?, ?, ?)", p.TeamID, p.Name, p.Dorsal)
	if err != nil {
		return nil, fmt.Errorf("failed to add player: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &p, nil
}

// playerForActor loads a player and checks the caller may manage its team.
func playerForActor(ctx context.Context, q querier, actor identity.Identity, playerID int64) (*Player, error) {
	p, err := mapPlayer(q.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM players WHERE id = ?", playerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := requireAccess(ctx, q, actor, p.TeamID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *store) GetPlayer(ctx context.Context, actor identity.Identity, playerID int64) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return playerForActor(ctx, s.db, actor, playerID)
}

func (s *store) UpdatePlayer(ctx context.Context, actor identity.Identity, playerID int64, in PlayerInput) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := playerForActor(ctx, s.db, actor, playerID)
	if err != nil {
		return nil, err
	}
	p.Name, p.Dorsal = in.Name, in.Dorsal
	if _, err := s.db.ExecContext(ctx, "UPDATE players SET name = ?, dorsal = ? WHERE id = ?", p.Name, p.Dorsal, p.ID); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	return p, nil
}

// SetPlayerPhoto stores a new photo file name and returns the previous one.
func (s *store) SetPlayerPhoto(ctx context.Context, actor identity.Identity, playerID int64, file string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := playerForActor(ctx, s.db, actor, playerID)
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE players SET photo_file = ? WHERE id = ?", file, p.ID); err != nil {
		return "", fmt.Errorf("failed to update photo: %w", err)
	}
	return p.PhotoFile, nil
}

// DeletePlayer removes a player and returns it so the caller can clean up its photo.
func (s *store) DeletePlayer(ctx context.Context, actor identity.Identity, playerID int64) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := playerForActor(ctx, s.db, actor, playerID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Match results include the player's events; removing them would break the score.
	var events int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM match_events WHERE player_id = ?", p.ID).Scan(&events); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if events > 0 {
		log.Warn("Refusing to delete player with match events", "playerID", p.ID, "events", events)
		return nil, ErrPlayerHasEvents
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM players WHERE id = ?", p.ID); err != nil {
		return nil, fmt.Errorf("failed to delete player: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Info("Player deleted", "playerID", p.ID, "teamID", p.TeamID)
	return p, nil
}

func (s *store) ListPlayers(ctx context.Context, actor identity.Identity, teamID int64) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := requireAccess(ctx, s.db, actor, teamID); err != nil {
		return nil, err
	}
	return listPlayers(ctx, s.db, teamID)
}

// ListPlayersPublic lists a roster without authorization, for the public ranking portal.
func (s *store) ListPlayersPublic(ctx context.Context, teamID int64) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPlayers(ctx, s.db, teamID)
}

func listPlayers(ctx context.Context, q querier, teamID int64) ([]Player, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+playerColumns+" FROM players WHERE team_id = ? ORDER BY dorsal, name, id", teamID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return mapPlayers(rows)
}
