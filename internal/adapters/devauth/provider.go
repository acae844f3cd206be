package devauth

// Package devauth provides a config-driven Authenticator with fixed demo accounts.

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
)

// Account is one demo login.
type Account struct {
	ID          string
	Username    string
	Password    string
	Email       string
	BackendRole string // "superadmin" or "admin", as the real backend reports it
}

// Config controls the demo authenticator.
type Config struct {
	Accounts        []Account
	SigningKey      []byte        // random when empty
	SessionDuration time.Duration // default 8h when zero
	Now             func() time.Time
}

// Authenticator implements ports.Authenticator with a fixed account list and
// issues HS256 tokens so downstream code sees a realistic bearer token.
type Authenticator struct {
	accounts map[string]Account
	key      []byte
	dur      time.Duration
	now      func() time.Time
}

// NewAuthenticator constructs a demo authenticator from Config.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if len(cfg.Accounts) == 0 {
		return nil, errors.New("demo auth: at least one account is required")
	}
	accounts := make(map[string]Account, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		if a.Username == "" || a.Password == "" {
			return nil, errors.New("demo auth: username and password are required")
		}
		if a.ID == "" {
			a.ID = "demo-" + a.Username
		}
		accounts[strings.ToLower(a.Username)] = a
	}

	key := cfg.SigningKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("demo auth: generate signing key: %w", err)
		}
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Authenticator{accounts: accounts, key: key, dur: dur, now: now}, nil
}

// DefaultAccounts returns the superadmin/superadmin and admin/admin demo pair.
func DefaultAccounts() []Account {
	return []Account{
		{ID: "demo-superadmin", Username: "superadmin", Password: "superadmin", Email: "superadmin@example.com", BackendRole: "superadmin"},
		{ID: "demo-admin", Username: "admin", Password: "admin", Email: "admin@example.com", BackendRole: "admin"},
	}
}

// Login implements ports.Authenticator.
func (a *Authenticator) Login(_ context.Context, username, password string) (domainauth.Identity, error) {
	acct, ok := a.accounts[strings.ToLower(strings.TrimSpace(username))]
	if !ok || subtle.ConstantTimeCompare([]byte(acct.Password), []byte(password)) != 1 {
		return domainauth.Identity{}, apperrors.Unauthenticated("Invalid credentials")
	}

	now := a.now()
	claims := jwt.MapClaims{
		"sub":  acct.ID,
		"name": acct.Username,
		"role": acct.BackendRole,
		"iat":  now.Unix(),
		"exp":  now.Add(a.dur).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("demo auth: sign token: %w", err)
	}
	return domainauth.Identity{
		ID:          acct.ID,
		Username:    acct.Username,
		Email:       acct.Email,
		BackendRole: acct.BackendRole,
		Token:       token,
	}, nil
}
