package auth

// Package auth contains hand-written test doubles for the auth and backend ports.
// They keep state in memory and record calls so tests can assert on side effects.

import (
	"context"
	"sync"
	"time"

	"github.com/brokerdesk/admin-console/internal/adapters/memory"
	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
	"github.com/brokerdesk/admin-console/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Authenticator = (*StubAuthenticator)(nil)
	_ ports.SessionStore  = (*MemorySessionStore)(nil)
	_ ports.SessionPurger = (*MemorySessionStore)(nil)
	_ ports.Notifier      = (*RecordingNotifier)(nil)
)

// StubAuthenticator accepts the credentials listed in Accounts.
type StubAuthenticator struct {
	LoginFunc func(ctx context.Context, username, password string) (domainauth.Identity, error)

	// Accounts maps username to password and identity.
	Accounts map[string]StubAccount

	mu    sync.Mutex
	calls int
}

// StubAccount is one accepted credential pair.
type StubAccount struct {
	Password string
	Identity domainauth.Identity
}

func (s *StubAuthenticator) Login(ctx context.Context, username, password string) (domainauth.Identity, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.LoginFunc != nil {
		return s.LoginFunc(ctx, username, password)
	}
	acct, ok := s.Accounts[username]
	if !ok || acct.Password != password {
		return domainauth.Identity{}, apperrors.Unauthenticated("Invalid credentials")
	}
	return acct.Identity, nil
}

// Calls reports how many logins were attempted.
func (s *StubAuthenticator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// MemorySessionStore wraps the in-memory adapter with failure injection.
// A non-nil GetErr makes every Get fail, which simulates an unreachable store.
type MemorySessionStore struct {
	*memory.SessionStore

	mu        sync.Mutex
	GetErr    error
	SaveErr   error
	DeleteErr error
	saves     int
	deletes   int
}

// NewMemorySessionStore creates an empty store. A nil now defaults to time.Now.
func NewMemorySessionStore(now func() time.Time) *MemorySessionStore {
	return &MemorySessionStore{SessionStore: memory.NewSessionStore(now)}
}

func (m *MemorySessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	m.mu.Lock()
	err := m.SaveErr
	m.saves++
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.SessionStore.Save(ctx, sess)
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	err := m.GetErr
	m.mu.Unlock()
	if err != nil {
		return domainauth.Session{}, err
	}
	return m.SessionStore.Get(ctx, id)
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	err := m.DeleteErr
	m.deletes++
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.SessionStore.Delete(ctx, id)
}

// FailGets toggles the simulated outage.
func (m *MemorySessionStore) FailGets(err error) {
	m.mu.Lock()
	m.GetErr = err
	m.mu.Unlock()
}

// Saves reports how many Save calls were made.
func (m *MemorySessionStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Deletes reports how many Delete calls were made.
func (m *MemorySessionStore) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

// Notice is one message captured by RecordingNotifier.
type Notice struct {
	Success bool
	Message string
}

// RecordingNotifier captures every notice in order.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *RecordingNotifier) Success(_ context.Context, msg string) { r.add(Notice{Success: true, Message: msg}) }

func (r *RecordingNotifier) Error(_ context.Context, msg string) { r.add(Notice{Message: msg}) }

func (r *RecordingNotifier) add(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices returns a copy of the captured notices.
func (r *RecordingNotifier) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Successes returns the success messages in order.
func (r *RecordingNotifier) Successes() []string { return r.filter(true) }

// Errors returns the error messages in order.
func (r *RecordingNotifier) Errors() []string { return r.filter(false) }

func (r *RecordingNotifier) filter(success bool) []string {
	var out []string
	for _, n := range r.Notices() {
		if n.Success == success {
			out = append(out, n.Message)
		}
	}
	return out
}

// Reset clears captured notices.
func (r *RecordingNotifier) Reset() {
	r.mu.Lock()
	r.notices = nil
	r.mu.Unlock()
}
