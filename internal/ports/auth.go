package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
)

// Authenticator exchanges credentials for a bearer token and identity.
// Rejected credentials are reported as an unauthenticated AppError.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (domainauth.Identity, error)
}

// SessionStore persists and retrieves admin sessions.
// Get returns an error wrapping ErrSessionNotFound when no record exists and
// ErrSessionCorrupt when the stored record cannot be decoded.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionPurger removes expired or undecodable sessions in bulk.
type SessionPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// RoleMapper maps the backend role string to an application role.
type RoleMapper interface {
	Map(backendRole string) domainauth.Role
}

// Notifier is the side channel for user-facing success and failure messages.
// Implementations resolve the recipient from ctx.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}
