package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role is an administrator's authorization role.
// Keep string form for easy persistence.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Label returns a human readable role name.
func (r Role) Label() string {
	if r == RoleSuperAdmin {
		return "Super Admin"
	}
	return "Admin"
}

// ParseRole accepts both the canonical and the lower-case backend spellings.
func ParseRole(v string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "ADMIN":
		return RoleAdmin, true
	case "SUPER_ADMIN", "SUPERADMIN":
		return RoleSuperAdmin, true
	default:
		return "", false
	}
}

// Status is an administrator account state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusPaused   Status = "PAUSED"
)

// ParseStatus normalises backend status spellings ("active", "paused", ...).
// Unknown values map to INACTIVE.
func ParseStatus(v string) Status {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "ACTIVE":
		return StatusActive
	case "PAUSED":
		return StatusPaused
	default:
		return StatusInactive
	}
}

// Identity is the result of a successful credential exchange.
// Authenticators map backend payloads into this shape.
type Identity struct {
	ID          string
	Username    string
	Email       string
	BackendRole string // raw role string as reported by the backend
	Token       string // bearer token for subsequent backend calls
}

// Principal is the authenticated administrator.
type Principal struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email,omitempty"`
	Role          Role       `json:"role"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	AssignedUsers []string   `json:"assigned_users,omitempty"`
}

// IsSuperAdmin reports whether the principal holds the SUPER_ADMIN role.
func (p Principal) IsSuperAdmin() bool { return p.Role == RoleSuperAdmin }

// Session is the server-side record we persist for an authenticated administrator.
// Principal and Token are written and cleared together.
// Version increases on every write so readers can detect a newer record.
type Session struct {
	ID        string    `json:"id"`
	Principal Principal `json:"principal"`
	Token     string    `json:"token"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Usable reports whether the record has everything a backend call needs.
func (s Session) Usable() bool {
	return s.ID != "" && s.Principal.ID != "" && s.Token != ""
}
