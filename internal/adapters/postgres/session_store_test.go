package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/ports"
	"github.com/brokerdesk/admin-console/internal/testutil"
)

func openTestStore(t *testing.T, now time.Time) *SessionStore {
	t.Helper()
	db := testutil.SetupTestPostgres(t)
	store, err := NewSessionStore(context.Background(), db)
	require.NoError(t, err)
	store.SetClock(testutil.FixedTimeFunc(now))
	return store
}

func TestNewSessionStore_RequiresDB(t *testing.T) {
	_, err := NewSessionStore(context.Background(), nil)
	assert.Error(t, err)
}

func TestSessionStore_SchemaIsIdempotent(t *testing.T) {
	db := testutil.SetupTestPostgres(t)
	_, err := NewSessionStore(context.Background(), db)
	require.NoError(t, err)
	_, err = NewSessionStore(context.Background(), db)
	require.NoError(t, err)
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	now := testutil.TestTime()
	store := openTestStore(t, now)
	ctx := context.Background()
	sess := testutil.SessionFixture("s1", domainauth.RoleSuperAdmin, now)
	exp := now.Add(24 * time.Hour)
	sess.Principal.ExpiresAt = &exp

	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Ping(ctx))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.Principal.ID, got.Principal.ID)
	assert.Equal(t, domainauth.RoleSuperAdmin, got.Principal.Role)
	assert.Equal(t, sess.Token, got.Token)
	require.NotNil(t, got.Principal.ExpiresAt)
	assert.True(t, exp.Equal(*got.Principal.ExpiresAt))
}

func TestSessionStore_SaveOverwrites(t *testing.T) {
	now := testutil.TestTime()
	store := openTestStore(t, now)
	ctx := context.Background()
	sess := testutil.SessionFixture("s2", domainauth.RoleAdmin, now)
	require.NoError(t, store.Save(ctx, sess))

	sess.Principal.Name = "renamed"
	sess.Version = 7
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Principal.Name)
	assert.Equal(t, int64(7), got.Version)
}

func TestSessionStore_RejectsInvalidSaves(t *testing.T) {
	now := testutil.TestTime()
	store := openTestStore(t, now)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, domainauth.Session{}))
	expired := testutil.SessionFixture("old", domainauth.RoleAdmin, now.Add(-2*time.Hour))
	assert.Error(t, store.Save(ctx, expired))
}

func TestSessionStore_UnusableRowIsDeleted(t *testing.T) {
	now := testutil.TestTime()
	store := openTestStore(t, now)
	ctx := context.Background()
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO console_sessions (id, data, version, expires_at, updated_at) VALUES ($1, $2, 0, $3, $4)`,
		"bad", `{"id":"bad"}`, now.Add(time.Hour), now)
	require.NoError(t, err)

	_, err = store.Get(ctx, "bad")
	assert.ErrorIs(t, err, ports.ErrSessionCorrupt)

	_, err = store.Get(ctx, "bad")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_ExpiredIsNotFound(t *testing.T) {
	now := testutil.TestTime()
	store := openTestStore(t, now)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testutil.SessionFixture("s3", domainauth.RoleAdmin, now)))

	store.SetClock(testutil.FixedTimeFunc(now.Add(2 * time.Hour)))
	_, err := store.Get(ctx, "s3")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_DeleteAndPurge(t *testing.T) {
	now := testutil.TestTime()
	store := openTestStore(t, now)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testutil.SessionFixture("a", domainauth.RoleAdmin, now)))
	require.NoError(t, store.Save(ctx, testutil.SessionFixture("b", domainauth.RoleAdmin, now)))

	require.NoError(t, store.Delete(ctx, "a"))
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, ""))

	removed, err := store.PurgeExpired(ctx, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = store.PurgeExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestSessionStore_GetEmptyID(t *testing.T) {
	store := &SessionStore{now: time.Now}
	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}
