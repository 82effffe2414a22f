package game

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
)

var (
	ErrNotFound      = errors.New("definition not found")
	ErrCellOccupied  = errors.New("grid cell already taken")
	ErrInvalidCell   = errors.New("grid cell outside the action's block")
	ErrActionInUse   = errors.New("action has recorded match events")
	ErrForeignAction = errors.New("ranking ingredient does not belong to the owner")
)

// RankingContext tells a ranking board what to aggregate.
type RankingContext string

const (
	// ContextMatch counts ingredient events over matches.
	ContextMatch RankingContext = "match"
	// ContextSession sums gamified drill points over training sessions.
	ContextSession RankingContext = "session"
)

// Action is a configurable, weighted event button shown in the match tracker.
type Action struct {
	ID         int64   `json:"id"`
	OwnerID    int64   `json:"owner_id"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	IsPositive bool    `json:"is_positive"`
	Section    string  `json:"section"`
	ScoreValue int     `json:"score_value"`
	Color      string  `json:"color"`
	Row        int     `json:"row"`
	Col        int     `json:"col"`
}

// Cell is the stored grid position of the action.
func (a Action) Cell() Cell {
	return Cell{Section: a.Section, Positive: a.IsPositive, Row: a.Row, Col: a.Col}
}

// Scoring converts the action for the match accounting.
func (a Action) Scoring() scoring.Action {
	return scoring.Action{ID: a.ID, Name: a.Name, Value: a.Value, Section: a.Section}
}

// ActionInput is the editable part of an Action. Row and Col are optional on create.
type ActionInput struct {
	Name       string  `json:"name" validate:"required,max=50"`
	Value      float64 `json:"value"`
	IsPositive bool    `json:"is_positive"`
	Section    string  `json:"section" validate:"section"`
	ScoreValue int     `json:"score_value" validate:"min=0,max=3"`
	Color      string  `json:"color" validate:"omitempty,hexcolor"`
	Row        *int    `json:"row,omitempty" validate:"omitempty,min=0"`
	Col        *int    `json:"col,omitempty" validate:"omitempty,min=0,max=2"`
}

// Ranking is a named subset of actions whose occurrences make a leaderboard.
type Ranking struct {
	ID        int64          `json:"id"`
	OwnerID   int64          `json:"owner_id"`
	Name      string         `json:"name"`
	Icon      string         `json:"icon"`
	Context   RankingContext `json:"context"`
	ActionIDs []int64        `json:"action_ids"`
}

// RankingInput is the editable part of a Ranking.
type RankingInput struct {
	Name      string  `json:"name" validate:"required,max=50"`
	Icon      string  `json:"icon" validate:"max=50"`
	Context   string  `json:"context" validate:"context"`
	ActionIDs []int64 `json:"action_ids"`
}

// store handles action and ranking definition database operations.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
