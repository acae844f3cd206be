// Package postgres provides a session store backed by a PostgreSQL table,
// shared by every console replica that points at the same database.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
	"github.com/brokerdesk/admin-console/internal/ports"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS console_sessions (
	id         TEXT        PRIMARY KEY,
	data       JSONB       NOT NULL,
	version    BIGINT      NOT NULL DEFAULT 0,
	expires_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS console_sessions_expires_at_idx ON console_sessions (expires_at)`,
}

// SessionStore implements ports.SessionStore over a *sql.DB opened with the
// pgx driver. The caller owns the handle.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionStore applies the schema and returns a store using db.
func NewSessionStore(ctx context.Context, db *sql.DB) (*SessionStore, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", apperrors.MapDBError(err))
		}
	}
	return &SessionStore{db: db, now: time.Now}, nil
}

// SetClock overrides the time source used for expiry checks.
func (s *SessionStore) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Ping checks the database handle.
func (s *SessionStore) Ping(ctx context.Context) error {
	return apperrors.MapDBError(s.db.PingContext(ctx))
}

// Save upserts sess.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	now := s.now()
	if sess.Expired(now) {
		return errors.New("session is expired")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO console_sessions (id, data, version, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	data = EXCLUDED.data,
	version = EXCLUDED.version,
	expires_at = EXCLUDED.expires_at,
	updated_at = EXCLUDED.updated_at`,
		sess.ID, string(data), sess.Version, sess.ExpiresAt.UTC(), now.UTC())
	if err != nil {
		return fmt.Errorf("save session: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Get loads a session. Undecodable and expired rows are removed on read.
func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM console_sessions WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("get session: %w", apperrors.MapDBError(err))
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal(data, &sess); unmarshalErr != nil || !sess.Usable() {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup corrupt session: %w", deleteErr)
		}
		return domainauth.Session{}, fmt.Errorf("%w: %s", ports.ErrSessionCorrupt, id)
	}
	if sess.Expired(s.now()) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session. Missing rows are not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM console_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", apperrors.MapDBError(err))
	}
	return nil
}

// PurgeExpired deletes every row whose expiry is at or before now.
func (s *SessionStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM console_sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return int(n), nil
}
