package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
	"github.com/brokerdesk/admin-console/internal/observability/metrics"
	"github.com/brokerdesk/admin-console/internal/ports"
)

// DefaultSessionTTL bounds sessions whose token carries no exp claim.
const DefaultSessionTTL = 12 * time.Hour

const (
	msgAuthRequired       = "Authentication required"
	msgInvalidCredentials = "Invalid credentials"
)

// GatewayPorts are the gateway's required collaborators.
type GatewayPorts struct {
	Authenticator ports.Authenticator
	Backend       ports.Backend
	Sessions      ports.SessionStore
	Roles         ports.RoleMapper
	Notifier      ports.Notifier
}

// GatewayConfig tunes session lifetime and the clock.
type GatewayConfig struct {
	SessionTTL time.Duration
	// TokenExpiry extracts the token's own expiry; nil means always use SessionTTL.
	TokenExpiry func(token string) (time.Time, bool)
	Now         func() time.Time
}

// Telemetry groups the optional logging and metrics sinks.
type Telemetry struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// AuthGatewayOptions groups dependencies for AuthGateway.
type AuthGatewayOptions struct {
	Ports     GatewayPorts
	Config    GatewayConfig
	Telemetry Telemetry
}

// AuthGateway owns the auth state machine and every privileged backend mutation.
// Operations report success as a bool; failures are logged and sent to the
// Notifier, never returned.
type AuthGateway struct {
	authn    ports.Authenticator
	backend  ports.Backend
	sessions ports.SessionStore
	roles    ports.RoleMapper
	notifier ports.Notifier

	ttl         time.Duration
	tokenExpiry func(string) (time.Time, bool)
	now         func() time.Time

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewAuthGateway constructs an AuthGateway. It panics when a required port is nil.
func NewAuthGateway(opts AuthGatewayOptions) *AuthGateway {
	p := opts.Ports
	if p.Authenticator == nil || p.Backend == nil || p.Sessions == nil || p.Roles == nil || p.Notifier == nil {
		panic("service: AuthGateway requires Authenticator, Backend, Sessions, Roles and Notifier")
	}
	ttl := opts.Config.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := opts.Config.Now
	if now == nil {
		now = time.Now
	}
	return &AuthGateway{
		authn:       p.Authenticator,
		backend:     p.Backend,
		sessions:    p.Sessions,
		roles:       p.Roles,
		notifier:    p.Notifier,
		ttl:         ttl,
		tokenExpiry: opts.Config.TokenExpiry,
		now:         now,
		logger:      opts.Telemetry.Logger,
		metrics:     opts.Telemetry.Metrics,
	}
}

func (g *AuthGateway) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

// Now returns the gateway clock's current time.
func (g *AuthGateway) Now() time.Time { return g.now() }

// Restore loads the session for one request. Missing, expired and malformed
// records yield LoggedOut; an unreachable store leaves the view Unknown.
func (g *AuthGateway) Restore(ctx context.Context, sessionID string) domainauth.View {
	view := domainauth.UnknownView()
	defer func() { g.metrics.SessionRestored(view.State.String()) }()

	if sessionID == "" {
		view = domainauth.LoggedOutView()
		return view
	}

	sess, err := g.sessions.Get(ctx, sessionID)
	switch {
	case err == nil:
		_ = view.Advance(domainauth.StateLoggedIn, &sess)
	case errors.Is(err, ports.ErrSessionNotFound):
		view = domainauth.LoggedOutView()
	case errors.Is(err, ports.ErrSessionCorrupt):
		g.log().WarnContext(ctx, "discarded corrupt session", slog.String("session_id", sessionID))
		view = domainauth.LoggedOutView()
	default:
		g.log().ErrorContext(ctx, "session store unavailable", slog.Any("error", err))
	}
	return view
}

// Login exchanges credentials, persists a new session and moves view to LoggedIn.
// Any session already held by view is discarded first.
func (g *AuthGateway) Login(ctx context.Context, view *domainauth.View, username, password string) (*domainauth.Session, bool) {
	if view == nil {
		v := domainauth.LoggedOutView()
		view = &v
	}
	g.settleLoggedOut(ctx, view)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		g.notifier.Error(ctx, "Please enter username and password")
		return nil, false
	}

	if err := view.Advance(domainauth.StateLoggingIn, nil); err != nil {
		g.log().ErrorContext(ctx, "login state", slog.Any("error", err))
		return nil, false
	}

	sess, err := g.startSession(ctx, username, password)
	g.metrics.LoginAttempt(err)
	if err != nil {
		_ = view.Advance(domainauth.StateLoggedOut, nil)
		g.log().InfoContext(ctx, "login failed",
			slog.String("username", username),
			slog.String("code", string(apperrors.GetCode(err))),
			slog.Any("error", err),
		)
		// The backend's own reason stays in the log; an unknown account and a
		// wrong password read the same to the user.
		if apperrors.IsUnauthenticated(err) || apperrors.IsValidation(err) {
			g.notifier.Error(ctx, msgInvalidCredentials)
		} else {
			g.notifier.Error(ctx, "Login failed")
		}
		return nil, false
	}

	_ = view.Advance(domainauth.StateLoggedIn, sess)
	g.log().InfoContext(ctx, "admin logged in",
		slog.String("admin_id", sess.Principal.ID),
		slog.String("role", string(sess.Principal.Role)),
	)
	g.notifier.Success(ctx, "Login successful")
	return sess, true
}

func (g *AuthGateway) startSession(ctx context.Context, username, password string) (*domainauth.Session, error) {
	identity, err := g.authn.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if identity.ID == "" || identity.Token == "" {
		return nil, apperrors.Internal("authenticator returned an incomplete identity")
	}

	now := g.now()
	name := identity.Username
	if name == "" {
		name = username
	}
	sess := &domainauth.Session{
		ID: uuid.NewString(),
		Principal: domainauth.Principal{
			ID:        identity.ID,
			Name:      name,
			Email:     identity.Email,
			Role:      g.roles.Map(identity.BackendRole),
			Status:    domainauth.StatusActive,
			CreatedAt: now,
		},
		Token:     identity.Token,
		Version:   1,
		CreatedAt: now,
		ExpiresAt: g.sessionExpiry(identity.Token, now),
	}
	if err := g.sessions.Save(ctx, *sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (g *AuthGateway) sessionExpiry(token string, now time.Time) time.Time {
	if g.tokenExpiry != nil {
		if exp, ok := g.tokenExpiry(token); ok && exp.After(now) {
			return exp
		}
	}
	return now.Add(g.ttl)
}

// settleLoggedOut brings view to LoggedOut, deleting any session it holds.
func (g *AuthGateway) settleLoggedOut(ctx context.Context, view *domainauth.View) {
	if view.Session != nil {
		if err := g.sessions.Delete(ctx, view.Session.ID); err != nil {
			g.log().WarnContext(ctx, "delete session", slog.Any("error", err))
		}
	}
	if view.State != domainauth.StateLoggedOut {
		_ = view.Advance(domainauth.StateLoggedOut, nil)
	}
}

// Logout clears the stored session and moves view to LoggedOut.
// It reports false only when the store could not delete the record.
func (g *AuthGateway) Logout(ctx context.Context, view *domainauth.View) bool {
	if view == nil {
		return true
	}
	ok := true
	if view.Session != nil {
		if err := g.sessions.Delete(ctx, view.Session.ID); err != nil {
			g.log().ErrorContext(ctx, "logout: delete session", slog.Any("error", err))
			ok = false
		} else {
			g.log().InfoContext(ctx, "admin logged out", slog.String("admin_id", view.Session.Principal.ID))
		}
	}
	if view.State != domainauth.StateLoggedOut {
		_ = view.Advance(domainauth.StateLoggedOut, nil)
	}
	return ok
}

// Do runs fn with the session's bearer token. A missing session fails before
// any network call. A rejected token ends the session: the store record is
// deleted and view moves to LoggedOut. The returned error is already logged.
func (g *AuthGateway) Do(ctx context.Context, view *domainauth.View, op string, fn func(token string) error) error {
	if view == nil || !view.IsAuthenticated() || view.Session.Token == "" {
		return apperrors.Unauthenticated(msgAuthRequired)
	}
	err := fn(view.Session.Token)
	if err == nil {
		return nil
	}
	if apperrors.IsSessionExpired(err) {
		g.forceLogout(ctx, view, op)
		return err
	}
	if !apperrors.IsValidation(err) {
		g.log().ErrorContext(ctx, "backend operation failed",
			slog.String("op", op),
			slog.String("admin_id", view.Session.Principal.ID),
			slog.Any("error", err),
		)
	}
	return err
}

func (g *AuthGateway) forceLogout(ctx context.Context, view *domainauth.View, op string) {
	adminID := view.Session.Principal.ID
	if err := g.sessions.Delete(ctx, view.Session.ID); err != nil {
		g.log().ErrorContext(ctx, "forced logout: delete session", slog.Any("error", err))
	}
	_ = view.Advance(domainauth.StateLoggedOut, nil)
	g.metrics.ForcedLogout()
	g.log().WarnContext(ctx, "backend rejected token; session ended",
		slog.String("op", op),
		slog.String("admin_id", adminID),
	)
}

// outcome names the notices for one gateway operation.
type outcome struct {
	op      string
	success string
	failure string
}

// run wraps Do with notifications and converts the result to a bool.
func (g *AuthGateway) run(ctx context.Context, view *domainauth.View, o outcome, fn func(token string) error) bool {
	err := g.Do(ctx, view, o.op, fn)
	if err == nil {
		if o.success != "" {
			g.notifier.Success(ctx, o.success)
		}
		return true
	}
	g.notifier.Error(ctx, NoticeFor(err, o.failure))
	return false
}

// NoticeFor picks the user-facing message for err. Validation, credential and
// session messages are shown as-is; anything else is replaced by fallback.
func NoticeFor(err error, fallback string) string {
	switch {
	case apperrors.IsValidation(err), apperrors.IsUnauthenticated(err),
		apperrors.IsSessionExpired(err), apperrors.IsNotFound(err), apperrors.IsTimeout(err):
		return apperrors.UserMessage(err)
	case fallback != "":
		return fallback
	default:
		return apperrors.UserMessage(err)
	}
}
