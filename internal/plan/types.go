package plan

import (
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound        = errors.New("plan not found")
	ErrItemNotFound    = errors.New("plan item not found")
	ErrDrillNotFound   = errors.New("drill not found")
	ErrInvalidDuration = errors.New("duration must be between 1 and 600 minutes")
	ErrEmptyBlock      = errors.New("block name is empty")
)

const (
	DefaultItemDuration = 10
	MinItemDuration     = 1
	MaxItemDuration     = 600
)

// Plan is a training session layout: blocks of drills with durations.
type Plan struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Date         time.Time `json:"date"`
	TeamName     string    `json:"team_name"`
	Notes        string    `json:"notes"`
	OwnerID      int64     `json:"owner_id"`
	Structure    string    `json:"structure"`
	IsPublic     bool      `json:"is_public"`
	Items        []Item    `json:"items"`
	TotalMinutes int       `json:"total_minutes"`
}

// Blocks returns the ordered block names of the plan.
func (p Plan) Blocks() []string {
	return ParseBlocks(p.Structure)
}

// Item is a drill scheduled inside a plan block.
type Item struct {
	ID         int64  `json:"id"`
	PlanID     int64  `json:"plan_id"`
	DrillID    int64  `json:"drill_id"`
	DrillTitle string `json:"drill_title"`
	BlockName  string `json:"block_name"`
	Order      int    `json:"order"`
	Duration   int    `json:"duration"`
}

// Input creates or edits a plan. Date uses the YYYY-MM-DD layout and defaults to today.
type Input struct {
	Name     string `json:"name" validate:"required,max=200"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TeamName string `json:"team_name" validate:"max=100"`
	Notes    string `json:"notes" validate:"max=5000"`
	Blocks   string `json:"blocks_csv" validate:"max=500"`
	IsPublic bool   `json:"is_public"`
}

func (in Input) date() time.Time {
	if d, err := time.Parse(time.DateOnly, in.Date); err == nil {
		return d
	}
	return time.Now()
}

// ParseBlocks splits a comma separated block list, trimming names and dropping empty ones.
func ParseBlocks(csv string) []string {
	blocks := []string{}
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// store handles training plan database operations.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
