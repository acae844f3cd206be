package bootstrap

import (
	"errors"
	"log/slog"

	"github.com/brokerdesk/admin-console/config"
	"github.com/brokerdesk/admin-console/internal/adapters/authroles"
	"github.com/brokerdesk/admin-console/internal/adapters/backend"
	"github.com/brokerdesk/admin-console/internal/adapters/devauth"
	"github.com/brokerdesk/admin-console/internal/ports"
)

// AuthOptions selects the credential exchange.
type AuthOptions struct {
	Auth config.AuthConfig
	// Backend serves logins in backend mode.
	Backend *backend.Client
	Logger  *slog.Logger
}

// BuildAuthenticator returns the Authenticator for the configured mode.
//
//nolint:ireturn // the mode decides the concrete type.
func BuildAuthenticator(opts AuthOptions) (ports.Authenticator, error) {
	switch opts.Auth.Mode {
	case config.AuthModeDemo:
		if opts.Logger != nil {
			opts.Logger.Warn("demo auth enabled; logins are checked against fixed local accounts")
		}
		authn, err := devauth.NewAuthenticator(devauth.Config{
			Accounts:   demoAccounts(opts.Auth),
			SigningKey: []byte(opts.Auth.Demo.SigningKey),
		})
		if err != nil {
			return nil, err
		}
		return authn, nil
	case config.AuthModeBackend, "":
		if opts.Backend == nil {
			return nil, errors.New("backend auth mode requires a backend client")
		}
		return opts.Backend, nil
	default:
		return nil, errors.New("unknown auth mode " + string(opts.Auth.Mode))
	}
}

// BuildRoleMapper maps backend role strings using the configured super-admin name.
func BuildRoleMapper(cfg config.AuthConfig) authroles.StaticMapper {
	return authroles.StaticMapper{SuperAdminRole: cfg.SuperAdminRole}
}

func demoAccounts(cfg config.AuthConfig) []devauth.Account {
	superRole := cfg.SuperAdminRole
	if superRole == "" {
		superRole = "superadmin"
	}
	d := cfg.Demo
	return []devauth.Account{
		{
			ID:          "demo-superadmin",
			Username:    d.SuperAdminUsername,
			Password:    d.SuperAdminPassword,
			Email:       d.SuperAdminUsername + "@example.com",
			BackendRole: superRole,
		},
		{
			ID:          "demo-admin",
			Username:    d.AdminUsername,
			Password:    d.AdminPassword,
			Email:       d.AdminUsername + "@example.com",
			BackendRole: "admin",
		},
	}
}
