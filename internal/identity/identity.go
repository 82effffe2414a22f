// Package identity carries the authenticated caller of a request.
//
// An Identity is resolved once per request from the session cookie and then passed
// explicitly to every store or service method that needs to authorize the caller.
package identity

import "errors"

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("not allowed")
)

// Identity is the caller of a request. The zero value is an anonymous visitor.
type Identity struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// Anonymous reports whether no user is logged in.
func (i Identity) Anonymous() bool {
	return i.UserID == 0
}

// Require returns ErrUnauthenticated for anonymous callers.
func (i Identity) Require() error {
	if i.Anonymous() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin returns ErrForbidden unless the caller is an administrator.
func (i Identity) RequireAdmin() error {
	if err := i.Require(); err != nil {
		return err
	}
	if !i.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// OwnsOrAdmin reports whether the caller owns a resource or is an administrator.
func (i Identity) OwnsOrAdmin(ownerID int64) bool {
	return !i.Anonymous() && (i.UserID == ownerID || i.IsAdmin)
}
