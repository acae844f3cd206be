package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/brokerdesk/admin-console/internal/adapters/authroles"
	"github.com/brokerdesk/admin-console/internal/adapters/backend"
	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
	"github.com/brokerdesk/admin-console/internal/mocks"
	authmocks "github.com/brokerdesk/admin-console/internal/mocks/auth"
	"github.com/brokerdesk/admin-console/internal/ports"
	"github.com/brokerdesk/admin-console/internal/testutil"
)

type gatewayFixture struct {
	gw       *AuthGateway
	authn    *authmocks.StubAuthenticator
	backend  *authmocks.FakeBackend
	sessions *authmocks.MemorySessionStore
	notifier *authmocks.RecordingNotifier
	now      time.Time
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	now := testutil.TestTime()
	f := &gatewayFixture{
		authn: &authmocks.StubAuthenticator{Accounts: map[string]authmocks.StubAccount{
			"admin": {Password: "admin", Identity: domainauth.Identity{
				ID: "a-1", Username: "admin", BackendRole: "admin", Token: "tok-admin",
			}},
			"superadmin": {Password: "superadmin", Identity: domainauth.Identity{
				ID: "s-1", Username: "superadmin", BackendRole: "superadmin", Token: "tok-super",
			}},
		}},
		backend:  authmocks.NewFakeBackend(),
		sessions: authmocks.NewMemorySessionStore(testutil.FixedTimeFunc(now)),
		notifier: &authmocks.RecordingNotifier{},
		now:      now,
	}
	f.gw = NewAuthGateway(AuthGatewayOptions{
		Ports: GatewayPorts{
			Authenticator: f.authn,
			Backend:       f.backend,
			Sessions:      f.sessions,
			Roles:         authroles.StaticMapper{},
			Notifier:      f.notifier,
		},
		Config: GatewayConfig{SessionTTL: time.Hour, Now: testutil.FixedTimeFunc(now)},
	})
	return f
}

// loggedIn returns a view for a session already saved in the store.
func (f *gatewayFixture) loggedIn(t *testing.T, id string, role domainauth.Role) *domainauth.View {
	t.Helper()
	sess := testutil.SessionFixture(id, role, f.now)
	require.NoError(t, f.sessions.Save(context.Background(), sess))
	v := f.gw.Restore(context.Background(), id)
	require.True(t, v.IsAuthenticated())
	return &v
}

func TestNewAuthGateway_PanicsWithoutPorts(t *testing.T) {
	assert.Panics(t, func() { NewAuthGateway(AuthGatewayOptions{}) })
}

func TestLogin_Success(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		wantRole  domainauth.Role
		wantSuper bool
	}{
		{name: "admin", username: "admin", password: "admin", wantRole: domainauth.RoleAdmin},
		{name: "super admin", username: "superadmin", password: "superadmin", wantRole: domainauth.RoleSuperAdmin, wantSuper: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t)
			view := domainauth.LoggedOutView()

			sess, ok := f.gw.Login(context.Background(), &view, tt.username, tt.password)
			require.True(t, ok)
			require.NotNil(t, sess)

			assert.Equal(t, domainauth.StateLoggedIn, view.State)
			assert.Equal(t, tt.wantRole, view.Role())
			assert.Equal(t, tt.wantSuper, view.IsSuperAdmin())
			assert.Equal(t, domainauth.StatusActive, sess.Principal.Status)
			assert.Equal(t, f.now.Add(time.Hour), sess.ExpiresAt)
			assert.Equal(t, int64(1), sess.Version)

			restored := f.gw.Restore(context.Background(), sess.ID)
			require.True(t, restored.IsAuthenticated())
			assert.Equal(t, sess.Principal, restored.Session.Principal)
			assert.NotEmpty(t, restored.Session.Token)
			assert.Equal(t, []string{"Login successful"}, f.notifier.Successes())
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		wantMsg   string
		wantCalls int
	}{
		{name: "empty username", username: "  ", password: "x", wantMsg: "Please enter username and password"},
		{name: "empty password", username: "admin", password: "", wantMsg: "Please enter username and password"},
		{name: "wrong password", username: "admin", password: "nope", wantMsg: "Invalid credentials", wantCalls: 1},
		{name: "unknown user", username: "ghost", password: "x", wantMsg: "Invalid credentials", wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t)
			view := domainauth.LoggedOutView()

			sess, ok := f.gw.Login(context.Background(), &view, tt.username, tt.password)
			assert.False(t, ok)
			assert.Nil(t, sess)
			assert.Equal(t, domainauth.StateLoggedOut, view.State)
			assert.Nil(t, view.Session)
			assert.Equal(t, 0, f.sessions.Len(), "store stays empty")
			assert.Equal(t, tt.wantCalls, f.authn.Calls())
			assert.Equal(t, []string{tt.wantMsg}, f.notifier.Errors())
		})
	}
}

func TestLogin_BackendFailureUsesGenericMessage(t *testing.T) {
	f := newGatewayFixture(t)
	f.authn.LoginFunc = func(context.Context, string, string) (domainauth.Identity, error) {
		return domainauth.Identity{}, apperrors.Wrap(errors.New("dial tcp: refused"), apperrors.ErrCodeBackend, "login")
	}
	view := domainauth.LoggedOutView()

	_, ok := f.gw.Login(context.Background(), &view, "admin", "admin")
	assert.False(t, ok)
	assert.Equal(t, []string{"Login failed"}, f.notifier.Errors())
}

func TestLogin_BackendRejectionReasonStaysHidden(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"validation from backend", apperrors.Validation("No admin found with that email")},
		{"unauthenticated with detail", apperrors.Unauthenticated("Password expired for ann@example.com")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t)
			f.authn.LoginFunc = func(context.Context, string, string) (domainauth.Identity, error) {
				return domainauth.Identity{}, tt.err
			}
			view := domainauth.LoggedOutView()

			sess, ok := f.gw.Login(context.Background(), &view, "ann@example.com", "pw")
			assert.False(t, ok)
			assert.Nil(t, sess)
			assert.Equal(t, domainauth.StateLoggedOut, view.State)
			assert.Equal(t, []string{"Invalid credentials"}, f.notifier.Errors())
			assert.Equal(t, 0, f.sessions.Len())
		})
	}
}

func TestLogin_RealBackendRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"No admin found with that email"}`))
	}))
	t.Cleanup(srv.Close)
	client, err := backend.New(backend.Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	f := newGatewayFixture(t)
	f.gw.authn = client
	view := domainauth.LoggedOutView()

	_, ok := f.gw.Login(context.Background(), &view, "ghost@example.com", "pw")
	assert.False(t, ok)
	assert.Equal(t, domainauth.StateLoggedOut, view.State)
	assert.Equal(t, []string{"Invalid credentials"}, f.notifier.Errors())
	assert.Equal(t, 0, f.sessions.Len())
}

func TestLogin_TransportErrorWithGomock(t *testing.T) {
	ctrl := gomock.NewController(t)
	authn := mocks.NewMockAuthenticator(ctrl)
	authn.EXPECT().Login(gomock.Any(), "admin", "admin").
		Return(domainauth.Identity{}, apperrors.Wrap(errors.New("dial tcp 10.0.0.7:443: i/o timeout"), apperrors.ErrCodeBackend, "login failed"))
	// No Save or Delete is expected; gomock fails the test on either.
	store := mocks.NewMockSessionStore(ctrl)
	notifier := &authmocks.RecordingNotifier{}

	gw := NewAuthGateway(AuthGatewayOptions{Ports: GatewayPorts{
		Authenticator: authn,
		Backend:       authmocks.NewFakeBackend(),
		Sessions:      store,
		Roles:         authroles.StaticMapper{},
		Notifier:      notifier,
	}})
	view := domainauth.LoggedOutView()

	sess, ok := gw.Login(context.Background(), &view, "admin", "admin")
	assert.False(t, ok)
	assert.Nil(t, sess)
	assert.Equal(t, domainauth.StateLoggedOut, view.State)
	assert.Equal(t, []string{"Login failed"}, notifier.Errors())
}

func TestLogin_TokenExpiryBoundsSession(t *testing.T) {
	f := newGatewayFixture(t)
	exp := f.now.Add(20 * time.Minute)
	f.gw.tokenExpiry = func(string) (time.Time, bool) { return exp, true }

	view := domainauth.LoggedOutView()
	sess, ok := f.gw.Login(context.Background(), &view, "admin", "admin")
	require.True(t, ok)
	assert.Equal(t, exp, sess.ExpiresAt)
}

func TestLogin_ReplacesExistingSession(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "old", domainauth.RoleAdmin)

	sess, ok := f.gw.Login(context.Background(), view, "admin", "admin")
	require.True(t, ok)
	assert.NotEqual(t, "old", sess.ID)

	old := f.gw.Restore(context.Background(), "old")
	assert.Equal(t, domainauth.StateLoggedOut, old.State)
}

func TestRestore(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	assert.Equal(t, domainauth.StateLoggedOut, f.gw.Restore(ctx, "").State)
	assert.Equal(t, domainauth.StateLoggedOut, f.gw.Restore(ctx, "missing").State)

	broken := testutil.SessionFixture("broken", domainauth.RoleAdmin, f.now)
	broken.Token = ""
	require.NoError(t, f.sessions.Save(ctx, broken))
	assert.Equal(t, domainauth.StateLoggedOut, f.gw.Restore(ctx, "broken").State)
	assert.Equal(t, 0, f.sessions.Len(), "malformed row is deleted")

	f.sessions.FailGets(errors.New("connection refused"))
	assert.Equal(t, domainauth.StateUnknown, f.gw.Restore(ctx, "anything").State)
}

func TestRestore_StoreErrorWithGomock(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "sid").Return(domainauth.Session{}, ports.ErrSessionCorrupt)

	gw := NewAuthGateway(AuthGatewayOptions{Ports: GatewayPorts{
		Authenticator: &authmocks.StubAuthenticator{},
		Backend:       authmocks.NewFakeBackend(),
		Sessions:      store,
		Roles:         authroles.StaticMapper{},
		Notifier:      &authmocks.RecordingNotifier{},
	}})
	assert.Equal(t, domainauth.StateLoggedOut, gw.Restore(context.Background(), "sid").State)
}

func TestLogout(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)

	assert.True(t, f.gw.Logout(context.Background(), view))
	assert.Equal(t, domainauth.StateLoggedOut, view.State)
	assert.Equal(t, 0, f.sessions.Len())

	// Logging out twice is harmless.
	assert.True(t, f.gw.Logout(context.Background(), view))
}

func TestDo_RequiresSession(t *testing.T) {
	f := newGatewayFixture(t)
	called := false
	for _, view := range []*domainauth.View{nil, {State: domainauth.StateLoggedOut}} {
		err := f.gw.Do(context.Background(), view, "list_users", func(string) error {
			called = true
			return nil
		})
		assert.True(t, apperrors.IsUnauthenticated(err))
	}
	assert.False(t, called, "no call without a token")
}

func TestDo_UnauthorizedForcesLogout(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)

	err := f.gw.Do(context.Background(), view, "list_users", func(token string) error {
		assert.Equal(t, "token-s1", token)
		return apperrors.SessionExpired(errors.New("401"))
	})
	require.Error(t, err)
	assert.Equal(t, domainauth.StateLoggedOut, view.State)
	assert.Nil(t, view.Session)
	assert.Equal(t, 0, f.sessions.Len(), "store cleared")
}

func TestNoticeFor(t *testing.T) {
	assert.Equal(t, "Name is required", NoticeFor(apperrors.Validation("Name is required"), "fallback"))
	assert.Equal(t, "fallback", NoticeFor(errors.New("boom"), "fallback"))
	assert.Equal(t, "Your session has expired. Please sign in again.",
		NoticeFor(apperrors.SessionExpired(errors.New("401")), "fallback"))
}
