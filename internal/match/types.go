package match

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jcaplliure/EntrenadorBasket/internal/team"
)

var (
	ErrNotFound      = errors.New("match not found")
	ErrFinished      = errors.New("match already finished")
	ErrEmptyRoster   = errors.New("a match needs at least one player")
	ErrForeignPlayer = errors.New("player does not belong to the match's team")
	ErrNotOnRoster   = errors.New("player is not on the match roster")
	ErrForeignAction = errors.New("action does not belong to the match owner")
	ErrInvalidPoints = errors.New("opponent points must be between 1 and 3")
	ErrInvalidPeriod = errors.New("period must be positive and minute not negative")
	ErrNothingToUndo = errors.New("no event to undo")
)

// MaxOpponentPoints is the largest single opponent basket.
const MaxOpponentPoints = 3

// Status is the lifecycle state of a match.
type Status string

const (
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

// Match is a game tracked live by a coach.
type Match struct {
	ID         int64     `json:"id"`
	TeamID     int64     `json:"team_id"`
	TeamName   string    `json:"team_name,omitempty"`
	OwnerID    int64     `json:"owner_id"`
	Opponent   string    `json:"opponent"`
	Date       time.Time `json:"date"`
	IsHome     bool      `json:"is_home"`
	ResultUs   int       `json:"result_us"`
	ResultThem int       `json:"result_them"`
	Status     Status    `json:"status"`
	Roster     []int64   `json:"roster"`
}

// Score is the running result of a match.
type Score struct {
	Us   int `json:"us"`
	Them int `json:"them"`
}

// Score returns the current result.
func (m Match) Score() Score {
	return Score{Us: m.ResultUs, Them: m.ResultThem}
}

// Event is one logged play. Opponent points carry no player and no action.
type Event struct {
	ID             int64     `json:"id"`
	MatchID        int64     `json:"match_id"`
	PlayerID       int64     `json:"player_id,omitempty"`
	ActionID       int64     `json:"action_id,omitempty"`
	OpponentPoints int       `json:"opponent_points,omitempty"`
	ScoreValue     int       `json:"score_value,omitempty"`
	Period         int       `json:"period"`
	GameMinute     int       `json:"game_minute"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateInput opens a match.
type CreateInput struct {
	TeamID   int64   `json:"team_id" validate:"required"`
	Opponent string  `json:"opponent" validate:"required,max=100"`
	IsHome   bool    `json:"is_home"`
	Roster   []int64 `json:"roster" validate:"required,min=1"`
}

// Play is a tracker tap: who did what, and when.
type Play struct {
	PlayerID   int64 `json:"player_id"`
	ActionID   int64 `json:"action_id"`
	Points     int   `json:"points"`
	Period     int   `json:"period"`
	GameMinute int   `json:"minute"`
}

func (p Play) validClock() bool {
	return p.Period >= 1 && p.GameMinute >= 0
}

// UndoFilter selects the event to remove. EventID wins over PlayerID; with neither set the
// latest event of the match is removed.
type UndoFilter struct {
	EventID  int64 `json:"event_id"`
	PlayerID int64 `json:"player_id"`
}

// store handles match tracking database operations.
type store struct {
	db   *sql.DB
	auth team.Authorizer
	mu   sync.RWMutex
}
