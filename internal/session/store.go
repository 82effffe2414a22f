package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
)

// New creates a new SessionStore. Team access is checked through auth.
func New(db *sql.DB, auth team.Authorizer) SessionStore {
	return &store{db: db, auth: auth}
}

const selectSession = `SELECT id, team_id, plan_id, session_date, status FROM training_sessions`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var (
		s      Session
		planID sql.NullInt64
		date   int64
		status string
	)
	if err := row.Scan(&s.ID, &s.TeamID, &planID, &date, &status); err != nil {
		return s, err
	}
	s.PlanID = planID.Int64
	s.Date = time.Unix(date, 0)
	s.Status = Status(status)
	return s, nil
}

// authorized loads a session and checks the caller may work with its team.
// It runs outside any transaction: local databases use a single connection.
func (s *store) authorized(ctx context.Context, actor identity.Identity, id int64) (*Session, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	sess, err := scanSession(s.db.QueryRowContext(ctx, selectSession+" WHERE id = ?", id))
	s.mu.RUnlock()
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := s.auth.RequireAccess(ctx, actor, sess.TeamID); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *store) active(ctx context.Context, actor identity.Identity, id int64) (*Session, error) {
	sess, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusFinished {
		return nil, ErrFinished
	}
	return sess, nil
}

// Start opens a session for a team with every current player marked present.
// planID is optional; when set the plan must be the caller's or public.
func (s *store) Start(ctx context.Context, actor identity.Identity, teamID, planID int64) (*Session, error) {
	if err := s.auth.RequireAccess(ctx, actor, teamID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	plan := sql.NullInt64{}
	if planID != 0 {
		var (
			ownerID  int64
			isPublic bool
		)
		err := tx.QueryRowContext(ctx, "SELECT user_id, is_public FROM training_plans WHERE id = ?", planID).Scan(&ownerID, &isPublic)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && ownerID != actor.UserID && !isPublic) {
			return nil, ErrPlanNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		plan = sql.NullInt64{Int64: planID, Valid: true}
	}

	sess := Session{TeamID: teamID, PlanID: planID, Date: time.Now(), Status: StatusActive}
	res, err := tx.ExecContext(ctx, "INSERT INTO training_sessions (team_id, plan_id, session_date, status) VALUES (?, ?, ?, ?)",
		sess.TeamID, plan, sess.Date.Unix(), sess.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if sess.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO session_attendance (session_id, player_id, is_present)
		SELECT ?, id, 1 FROM players WHERE team_id = ?`, sess.ID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to create attendance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Info("Session started", "sessionID", sess.ID, "teamID", teamID, "planID", planID)
	return &sess, nil
}

// Get returns the session with its roster, attendance and recorded scores.
func (s *store) Get(ctx context.Context, actor identity.Identity, id int64) (*Detail, error) {
	sess, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := &Detail{Session: *sess, Players: []team.Player{}, Attendance: map[int64]bool{}, Scores: []Score{}}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.team_id, p.name, p.dorsal, p.photo_file, a.is_present
		FROM session_attendance a
		JOIN players p ON p.id = a.player_id
		WHERE a.session_id = ?
		ORDER BY p.dorsal, p.name`, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	for rows.Next() {
		var (
			p       team.Player
			present bool
		)
		if err := rows.Scan(&p.ID, &p.TeamID, &p.Name, &p.Dorsal, &p.PhotoFile, &present); err != nil {
			rows.Close()
			return nil, err
		}
		d.Players = append(d.Players, p)
		d.Attendance[p.ID] = present
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT drill_id, player_id, raw_score, points FROM session_scores WHERE session_id = ? ORDER BY drill_id, points DESC", id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.DrillID, &sc.PlayerID, &sc.RawScore, &sc.Points); err != nil {
			return nil, err
		}
		d.Scores = append(d.Scores, sc)
	}
	return d, rows.Err()
}

func (s *store) ListForTeam(ctx context.Context, actor identity.Identity, teamID int64) ([]Session, error) {
	if err := s.auth.RequireAccess(ctx, actor, teamID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectSession+" WHERE team_id = ? ORDER BY session_date DESC, id DESC", teamID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *store) SetAttendance(ctx context.Context, actor identity.Identity, sessionID, playerID int64, present bool) error {
	if _, err := s.active(ctx, actor, sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE session_attendance SET is_present = ? WHERE session_id = ? AND player_id = ?", present, sessionID, playerID)
	if err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoAttendance
	}
	return nil
}

// SaveDrillResults ranks the raw scores of a drill and replaces any previous results for it.
func (s *store) SaveDrillResults(ctx context.Context, actor identity.Identity, sessionID, drillID int64, criterion scoring.Criterion, results []scoring.RawResult) ([]scoring.Scored, error) {
	scored, err := scoring.AssignPoints(results, criterion)
	if err != nil {
		return nil, err
	}
	sess, err := s.active(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var found int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM drills WHERE id = ?", drillID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDrillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	roster, err := teamPlayerIDs(ctx, tx, sess.TeamID)
	if err != nil {
		return nil, err
	}
	for _, r := range scored {
		if !roster[r.PlayerID] {
			return nil, fmt.Errorf("player %d: %w", r.PlayerID, ErrForeignPlayer)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM session_scores WHERE session_id = ? AND drill_id = ?", sessionID, drillID); err != nil {
		return nil, fmt.Errorf("failed to clear scores: %w", err)
	}
	for _, r := range scored {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_scores (session_id, drill_id, player_id, raw_score, points) VALUES (?, ?, ?, ?, ?)`,
			sessionID, drillID, r.PlayerID, r.RawScore, r.Points)
		if err != nil {
			return nil, fmt.Errorf("failed to save score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Debug("Saved drill results", "sessionID", sessionID, "drillID", drillID, "players", len(scored), "criterion", criterion)
	return scored, nil
}

func teamPlayerIDs(ctx context.Context, tx *sql.Tx, teamID int64) (map[int64]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM players WHERE team_id = ?", teamID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// AddLatePlayer creates a player in the session's team and marks them present.
func (s *store) AddLatePlayer(ctx context.Context, actor identity.Identity, sessionID int64, in LatePlayerInput) (*team.Player, error) {
	sess, err := s.active(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p := team.Player{TeamID: sess.TeamID, Name: in.Name, Dorsal: in.Dorsal}
	res, err := tx.ExecContext(ctx, "INSERT INTO players (team_id, name, dorsal) VALUES (?, ?, ?)", p.TeamID, p.Name, p.Dorsal)
	if err != nil {
		return nil, fmt.Errorf("failed to add player: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO session_attendance (session_id, player_id, is_present) VALUES (?, ?, 1)", sessionID, p.ID); err != nil {
		return nil, fmt.Errorf("failed to add attendance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Info("Late player added", "sessionID", sessionID, "playerID", p.ID)
	return &p, nil
}

func (s *store) Finish(ctx context.Context, actor identity.Identity, sessionID int64) (*Session, error) {
	sess, err := s.active(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "UPDATE training_sessions SET status = ? WHERE id = ?", StatusFinished, sessionID); err != nil {
		return nil, fmt.Errorf("failed to finish session: %w", err)
	}
	sess.Status = StatusFinished
	log.Info("Session finished", "sessionID", sessionID, "teamID", sess.TeamID)
	return sess, nil
}

func (s *store) Delete(ctx context.Context, actor identity.Identity, sessionID int64) error {
	if _, err := s.authorized(ctx, actor, sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM training_sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// TeamPoints sums the gamified points of every player over all sessions of a team.
// Players without scores are absent from the map. Callers authorize.
func (s *store) TeamPoints(ctx context.Context, teamID int64) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT sc.player_id, SUM(sc.points)
		FROM session_scores sc
		JOIN training_sessions ts ON ts.id = sc.session_id
		WHERE ts.team_id = ?
		GROUP BY sc.player_id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	points := make(map[int64]int)
	for rows.Next() {
		var playerID int64
		var total int
		if err := rows.Scan(&playerID, &total); err != nil {
			return nil, err
		}
		points[playerID] = total
	}
	return points, rows.Err()
}
