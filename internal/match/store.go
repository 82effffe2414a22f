package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
	"github.com/jcaplliure/EntrenadorBasket/internal/user"
)

// New creates a new MatchStore. Team access is checked through auth.
func New(db *sql.DB, auth team.Authorizer) MatchStore {
	return &store{db: db, auth: auth}
}

const selectMatch = `
	SELECT m.id, m.team_id, t.name, m.user_id, m.opponent, m.match_date, m.is_home,
		m.result_us, m.result_them, m.status
	FROM matches m
	JOIN teams t ON t.id = m.team_id`

func scanMatch(row interface{ Scan(...any) error }) (Match, error) {
	var (
		m      Match
		date   int64
		status string
	)
	err := row.Scan(&m.ID, &m.TeamID, &m.TeamName, &m.OwnerID, &m.Opponent, &date, &m.IsHome,
		&m.ResultUs, &m.ResultThem, &status)
	if err != nil {
		return m, err
	}
	m.Date = time.Unix(date, 0)
	m.Status = Status(status)
	m.Roster = []int64{}
	return m, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// authorized loads a match and checks the caller may work with its team.
func (s *store) authorized(ctx context.Context, actor identity.Identity, id int64) (*Match, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	m, err := scanMatch(s.db.QueryRowContext(ctx, selectMatch+" WHERE m.id = ?", id))
	s.mu.RUnlock()
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := s.auth.RequireAccess(ctx, actor, m.TeamID); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *store) live(ctx context.Context, actor identity.Identity, id int64) (*Match, error) {
	m, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if m.Status == StatusFinished {
		return nil, ErrFinished
	}
	return m, nil
}

func (s *store) Create(ctx context.Context, actor identity.Identity, in CreateInput) (*Match, error) {
	if err := s.auth.RequireAccess(ctx, actor, in.TeamID); err != nil {
		return nil, err
	}
	roster := dedupe(in.Roster)
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var count int
	args := append([]any{in.TeamID}, int64Args(roster)...)
	err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM players WHERE team_id = ? AND id IN (%s)",
		placeholders(len(roster))), args...).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count != len(roster) {
		return nil, ErrForeignPlayer
	}

	m := Match{
		TeamID:   in.TeamID,
		OwnerID:  actor.UserID,
		Opponent: strings.TrimSpace(in.Opponent),
		Date:     time.Now(),
		IsHome:   in.IsHome,
		Status:   StatusLive,
		Roster:   roster,
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO matches (team_id, user_id, opponent, match_date, is_home, status)
		VALUES (?, ?, ?, ?, ?, ?)`, m.TeamID, m.OwnerID, m.Opponent, m.Date.Unix(), m.IsHome, m.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	for _, playerID := range roster {
		if _, err := tx.ExecContext(ctx, "INSERT INTO match_roster (match_id, player_id) VALUES (?, ?)", m.ID, playerID); err != nil {
			return nil, fmt.Errorf("failed to add roster player: %w", err)
		}
	}
	if err := tx.QueryRowContext(ctx, "SELECT name FROM teams WHERE id = ?", m.TeamID).Scan(&m.TeamName); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Info("Match created", "matchID", m.ID, "teamID", m.TeamID, "opponent", m.Opponent, "roster", len(roster))
	return &m, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *store) roster(ctx context.Context, matchID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT player_id FROM match_roster WHERE match_id = ? ORDER BY player_id", matchID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *store) Get(ctx context.Context, actor identity.Identity, id int64) (*Match, error) {
	m, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m.Roster, err = s.roster(ctx, id); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *store) ListForUser(ctx context.Context, actor identity.Identity) ([]Match, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectMatch+`
		WHERE t.user_id = ?
			OR m.team_id IN (SELECT team_id FROM team_staff WHERE email = ? AND status = ?)
		ORDER BY m.match_date DESC, m.id DESC`,
		actor.UserID, user.NormalizeEmail(actor.Email), team.StaffAccepted)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Delete removes a match. Only its creator or the team owner may do so.
func (s *store) Delete(ctx context.Context, actor identity.Identity, id int64) error {
	m, err := s.authorized(ctx, actor, id)
	if err != nil {
		return err
	}
	if m.OwnerID != actor.UserID && !actor.IsAdmin {
		if err := s.auth.RequireOwner(ctx, actor, m.TeamID); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM matches WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	log.Info("Match deleted", "matchID", id, "by", actor.UserID)
	return nil
}

func (s *store) Finish(ctx context.Context, actor identity.Identity, id int64) (*Match, error) {
	m, err := s.live(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "UPDATE matches SET status = ? WHERE id = ?", StatusFinished, id); err != nil {
		return nil, fmt.Errorf("failed to finish match: %w", err)
	}
	m.Status = StatusFinished
	if m.Roster, err = s.roster(ctx, id); err != nil {
		return nil, err
	}
	log.Info("Match finished", "matchID", id, "us", m.ResultUs, "them", m.ResultThem)
	return m, nil
}

func currentScore(ctx context.Context, tx *sql.Tx, matchID int64) (Score, error) {
	var sc Score
	err := tx.QueryRowContext(ctx, "SELECT result_us, result_them FROM matches WHERE id = ?", matchID).Scan(&sc.Us, &sc.Them)
	if err != nil {
		return sc, fmt.Errorf("database error: %w", err)
	}
	return sc, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, ev *Event) error {
	player := sql.NullInt64{Int64: ev.PlayerID, Valid: ev.PlayerID != 0}
	action := sql.NullInt64{Int64: ev.ActionID, Valid: ev.ActionID != 0}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO match_events (match_id, player_id, action_id, opponent_points, score_value, period, game_minute, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.MatchID, player, action, ev.OpponentPoints, ev.ScoreValue, ev.Period, ev.GameMinute, ev.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	ev.ID, err = res.LastInsertId()
	return err
}

// RecordAction logs a player action. The action must be one of the match owner's
// definitions or the caller's own.
func (s *store) RecordAction(ctx context.Context, actor identity.Identity, matchID int64, play Play) (*Event, Score, error) {
	m, err := s.live(ctx, actor, matchID)
	if err != nil {
		return nil, Score{}, err
	}
	if !play.validClock() {
		return nil, Score{}, ErrInvalidPeriod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Score{}, err
	}
	defer tx.Rollback()

	var found int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM match_roster WHERE match_id = ? AND player_id = ?", matchID, play.PlayerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Score{}, ErrNotOnRoster
	}
	if err != nil {
		return nil, Score{}, fmt.Errorf("database error: %w", err)
	}

	var (
		ownerID    int64
		scoreValue int
	)
	err = tx.QueryRowContext(ctx, "SELECT user_id, score_value FROM action_definitions WHERE id = ?", play.ActionID).Scan(&ownerID, &scoreValue)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && ownerID != m.OwnerID && ownerID != actor.UserID) {
		return nil, Score{}, ErrForeignAction
	}
	if err != nil {
		return nil, Score{}, fmt.Errorf("database error: %w", err)
	}

	ev := Event{
		MatchID:    matchID,
		PlayerID:   play.PlayerID,
		ActionID:   play.ActionID,
		Period:     play.Period,
		ScoreValue: scoreValue,
		GameMinute: play.GameMinute,
		CreatedAt:  time.Now(),
	}
	if err := insertEvent(ctx, tx, &ev); err != nil {
		return nil, Score{}, err
	}
	if scoreValue != 0 {
		if _, err := tx.ExecContext(ctx, "UPDATE matches SET result_us = result_us + ? WHERE id = ?", scoreValue, matchID); err != nil {
			return nil, Score{}, fmt.Errorf("failed to update score: %w", err)
		}
	}
	sc, err := currentScore(ctx, tx, matchID)
	if err != nil {
		return nil, Score{}, err
	}
	if err := tx.Commit(); err != nil {
		return nil, Score{}, err
	}
	log.Debug("Action recorded", "matchID", matchID, "playerID", play.PlayerID, "actionID", play.ActionID, "points", scoreValue)
	return &ev, sc, nil
}

func (s *store) RecordOpponentPoints(ctx context.Context, actor identity.Identity, matchID int64, play Play) (*Event, Score, error) {
	if play.Points < 1 || play.Points > MaxOpponentPoints {
		return nil, Score{}, ErrInvalidPoints
	}
	if !play.validClock() {
		return nil, Score{}, ErrInvalidPeriod
	}
	if _, err := s.live(ctx, actor, matchID); err != nil {
		return nil, Score{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Score{}, err
	}
	defer tx.Rollback()

	ev := Event{
		MatchID:        matchID,
		OpponentPoints: play.Points,
		Period:         play.Period,
		GameMinute:     play.GameMinute,
		CreatedAt:      time.Now(),
	}
	if err := insertEvent(ctx, tx, &ev); err != nil {
		return nil, Score{}, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE matches SET result_them = result_them + ? WHERE id = ?", play.Points, matchID); err != nil {
		return nil, Score{}, fmt.Errorf("failed to update score: %w", err)
	}
	sc, err := currentScore(ctx, tx, matchID)
	if err != nil {
		return nil, Score{}, err
	}
	if err := tx.Commit(); err != nil {
		return nil, Score{}, err
	}
	log.Debug("Opponent points recorded", "matchID", matchID, "points", play.Points)
	return &ev, sc, nil
}

const selectEvent = `
	SELECT id, match_id, player_id, action_id, opponent_points, score_value, period, game_minute, created_at
	FROM match_events`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var (
		ev      Event
		player  sql.NullInt64
		action  sql.NullInt64
		created int64
	)
	err := row.Scan(&ev.ID, &ev.MatchID, &player, &action, &ev.OpponentPoints, &ev.ScoreValue,
		&ev.Period, &ev.GameMinute, &created)
	if err != nil {
		return ev, err
	}
	ev.PlayerID = player.Int64
	ev.ActionID = action.Int64
	ev.CreatedAt = time.Unix(created, 0)
	return ev, nil
}

// Undo deletes the selected event and subtracts exactly what it added to the result.
func (s *store) Undo(ctx context.Context, actor identity.Identity, matchID int64, filter UndoFilter) (*Event, Score, error) {
	if _, err := s.live(ctx, actor, matchID); err != nil {
		return nil, Score{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Score{}, err
	}
	defer tx.Rollback()

	query, args := selectEvent+" WHERE match_id = ?", []any{matchID}
	switch {
	case filter.EventID != 0:
		query += " AND id = ?"
		args = append(args, filter.EventID)
	case filter.PlayerID != 0:
		query += " AND player_id = ?"
		args = append(args, filter.PlayerID)
	}
	query += " ORDER BY id DESC LIMIT 1"

	ev, err := scanEvent(tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Score{}, ErrNothingToUndo
	}
	if err != nil {
		return nil, Score{}, fmt.Errorf("database error: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM match_events WHERE id = ?", ev.ID); err != nil {
		return nil, Score{}, fmt.Errorf("failed to delete event: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE matches SET result_us = result_us - ?, result_them = result_them - ? WHERE id = ?`,
		ev.ScoreValue, ev.OpponentPoints, matchID)
	if err != nil {
		return nil, Score{}, fmt.Errorf("failed to update score: %w", err)
	}
	sc, err := currentScore(ctx, tx, matchID)
	if err != nil {
		return nil, Score{}, err
	}
	if err := tx.Commit(); err != nil {
		return nil, Score{}, err
	}
	log.Info("Event undone", "matchID", matchID, "eventID", ev.ID, "playerID", ev.PlayerID)
	return &ev, sc, nil
}

func (s *store) events(ctx context.Context, matchID int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvent+" WHERE match_id = ? ORDER BY id", matchID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Events returns the match log in recording order.
func (s *store) Events(ctx context.Context, actor identity.Identity, matchID int64) ([]Event, error) {
	if _, err := s.authorized(ctx, actor, matchID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events(ctx, matchID)
}
