package team

import (
	"context"
	"database/sql"
	"time"

	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

const teamColumns = `t.id, t.name, t.category, t.logo_file, t.user_id, t.visibility_mode, t.visibility_top_x, t.visibility_top_pct, t.created_at`

// mapTeam reads a row selected with teamColumns.
func mapTeam(row scanner, viewerID int64) (Team, error) {
	var (
		t         Team
		mode      string
		createdAt int64
	)
	err := row.Scan(&t.ID, &t.Name, &t.Category, &t.LogoFile, &t.OwnerID, &mode, &t.Visibility.TopX, &t.Visibility.TopPct, &createdAt)
	if err != nil {
		return t, err
	}
	t.Visibility.Mode = scoring.VisibilityMode(mode)
	t.IsOwner = viewerID != 0 && t.OwnerID == viewerID
	t.CreatedAt = time.Unix(createdAt, 0)
	return t, nil
}

const playerColumns = `id, team_id, name, dorsal, photo_file`

func mapPlayer(row scanner) (Player, error) {
	var p Player
	err := row.Scan(&p.ID, &p.TeamID, &p.Name, &p.Dorsal, &p.PhotoFile)
	return p, err
}

func mapPlayers(rows *sql.Rows) ([]Player, error) {
	defer rows.Close()
	players := []Player{}
	for rows.Next() {
		p, err := mapPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

const staffColumns = `s.id, s.team_id, t.name, s.user_id, s.email, s.role, s.status, s.updated_at`

func mapStaff(row scanner) (Staff, error) {
	var (
		s         Staff
		userID    sql.NullInt64
		status    string
		updatedAt int64
	)
	if err := row.Scan(&s.ID, &s.TeamID, &s.TeamName, &userID, &s.Email, &s.Role, &status, &updatedAt); err != nil {
		return s, err
	}
	s.UserID = userID.Int64
	s.Status = StaffStatus(status)
	s.UpdatedAt = time.Unix(updatedAt, 0)
	return s, nil
}

func mapStaffRows(rows *sql.Rows) ([]Staff, error) {
	defer rows.Close()
	staff := []Staff{}
	for rows.Next() {
		s, err := mapStaff(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}
