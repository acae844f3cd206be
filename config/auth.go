package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeBackend exchanges credentials with the REST backend.
	AuthModeBackend AuthMode = "backend"
	// AuthModeDemo uses fixed demo accounts (for development only).
	AuthModeDemo AuthMode = "demo"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "backend", "demo":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: backend, demo)", v)
	}
}

// DemoAuthConfig controls the fixed demo accounts.
// Used when AUTH_MODE=demo for development and walkthroughs.
type DemoAuthConfig struct {
	SuperAdminUsername string `env:"SUPERADMIN_USERNAME" envDefault:"superadmin"`
	SuperAdminPassword string `env:"SUPERADMIN_PASSWORD" envDefault:"superadmin"`
	AdminUsername      string `env:"ADMIN_USERNAME"      envDefault:"admin"`
	AdminPassword      string `env:"ADMIN_PASSWORD"      envDefault:"admin"`
	// SigningKey signs the demo bearer tokens. A random key is used when empty.
	SigningKey string `env:"SIGNING_KEY"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authenticator to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"backend"`

	// Demo configuration (used when Mode=demo).
	Demo DemoAuthConfig `envPrefix:"DEMO_"`

	// SuperAdminRole is the backend role string that maps to SUPER_ADMIN.
	// Every other role string maps to ADMIN.
	SuperAdminRole string `env:"AUTH_SUPERADMIN_ROLE" envDefault:"superadmin"`
}
