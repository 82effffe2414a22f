package team

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
)

var (
	ErrNotFound          = errors.New("team not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrStaffNotFound     = errors.New("staff invitation not found")
	ErrAlreadyInvited    = errors.New("email already invited to this team")
	ErrSelfInvite        = errors.New("the owner cannot invite themselves")
	ErrInvalidTransition = errors.New("invalid staff status transition")
	ErrPlayerHasEvents   = errors.New("player has recorded match events")
)

// Team is a squad owned by a coach.
type Team struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Category   string             `json:"category"`
	LogoFile   string             `json:"logo,omitempty"`
	OwnerID    int64              `json:"owner_id"`
	IsOwner    bool               `json:"is_owner"`
	Visibility scoring.Visibility `json:"visibility"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Player is a squad member.
type Player struct {
	ID        int64  `json:"id"`
	TeamID    int64  `json:"team_id"`
	Name      string `json:"name"`
	Dorsal    int    `json:"dorsal"`
	PhotoFile string `json:"photo,omitempty"`
}

// Entry converts the player into an empty leaderboard line.
func (p Player) Entry() scoring.Entry {
	return scoring.Entry{PlayerID: p.ID, Name: p.Name, Dorsal: p.Dorsal, PhotoFile: p.PhotoFile}
}

// Roster converts the player for the match accounting.
func (p Player) Roster() scoring.RosterPlayer {
	return scoring.RosterPlayer{ID: p.ID, Name: p.Name, Dorsal: p.Dorsal, PhotoFile: p.PhotoFile}
}

// StaffStatus is the state of an assistant coach invitation.
type StaffStatus string

const (
	StaffPending  StaffStatus = "pending"
	StaffAccepted StaffStatus = "accepted"
	StaffRemoved  StaffStatus = "removed"
)

var transitions = map[StaffStatus][]StaffStatus{
	StaffPending:  {StaffAccepted, StaffRemoved},
	StaffAccepted: {StaffRemoved},
	StaffRemoved:  {StaffPending},
}

// CanTransition reports whether a staff row may move from one status to another.
func CanTransition(from, to StaffStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Staff is an assistant coach invited to a team. UserID is zero until the invite is accepted.
type Staff struct {
	ID        int64       `json:"id"`
	TeamID    int64       `json:"team_id"`
	TeamName  string      `json:"team_name,omitempty"`
	UserID    int64       `json:"user_id,omitempty"`
	Email     string      `json:"email"`
	Role      string      `json:"role"`
	Status    StaffStatus `json:"status"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TeamInput creates a team.
type TeamInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"max=50"`
}

// SettingsInput edits a team and its public ranking visibility.
type SettingsInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"max=50"`
	Mode     string `json:"visibility_mode" validate:"visibility"`
	TopX     int    `json:"visibility_top_x" validate:"min=0,max=50"`
	TopPct   int    `json:"visibility_top_pct" validate:"min=1,max=100"`
}

// PlayerInput creates or edits a player.
type PlayerInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Dorsal int    `json:"dorsal" validate:"min=0,max=99"`
}

// store handles team, player and staff database operations.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
