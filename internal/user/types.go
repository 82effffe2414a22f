package user

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

// DefaultBlocks is the block structure offered to a coach who has never built a plan.
const DefaultBlocks = "Calentamiento,Técnica Individual,Tiro,Táctica,Físico,Vuelta a la Calma"

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// User is a coach account.
type User struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	PasswordHash     string    `json:"-"`
	IsAdmin          bool      `json:"is_admin"`
	LastBlocksConfig string    `json:"last_blocks_config"`
	CreatedAt        time.Time `json:"created_at"`
}

// Blocks returns the coach's last used plan structure, falling back to DefaultBlocks.
func (u *User) Blocks() string {
	if u.LastBlocksConfig == "" {
		return DefaultBlocks
	}
	return u.LastBlocksConfig
}

// Invitation allows an email address to register.
type Invitation struct {
	Email     string    `json:"email"`
	InvitedBy int64     `json:"invited_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// store handles user-related database operations.
type store struct {
	db         *sql.DB
	adminEmail string
	mu         sync.RWMutex
}
