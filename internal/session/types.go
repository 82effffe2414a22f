package session

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jcaplliure/EntrenadorBasket/internal/team"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrFinished      = errors.New("session already finished")
	ErrNoAttendance  = errors.New("player has no attendance row in this session")
	ErrForeignPlayer = errors.New("player does not belong to the session's team")
	ErrDrillNotFound = errors.New("drill not found")
	ErrPlanNotFound  = errors.New("plan not found")
)

// Status is the lifecycle state of a training session.
type Status string

const (
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Session is a training held by a team, optionally following a plan.
type Session struct {
	ID     int64     `json:"id"`
	TeamID int64     `json:"team_id"`
	PlanID int64     `json:"plan_id,omitempty"`
	Date   time.Time `json:"date"`
	Status Status    `json:"status"`
}

// Score is the stored result of one player in one drill of a session.
type Score struct {
	DrillID  int64   `json:"drill_id"`
	PlayerID int64   `json:"player_id"`
	RawScore float64 `json:"raw_score"`
	Points   int     `json:"points"`
}

// Detail is a session with everything the tracker screen shows.
type Detail struct {
	Session    Session        `json:"session"`
	Players    []team.Player  `json:"players"`
	Attendance map[int64]bool `json:"attendance"`
	Scores     []Score        `json:"scores"`
}

// LatePlayerInput registers a player who joins during a session.
type LatePlayerInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Dorsal int    `json:"dorsal" validate:"min=0,max=99"`
}

// store handles training session database operations.
type store struct {
	db   *sql.DB
	auth team.Authorizer
	mu   sync.RWMutex
}
