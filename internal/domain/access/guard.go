// Package access holds the route guards and the role-filtered navigation menu.
// Everything here is a pure function of the request's auth view.
package access

import (
	"github.com/brokerdesk/admin-console/internal/domain/auth"
)

// Decision is the outcome of evaluating a guard for a request.
type Decision int

const (
	// Allow renders the requested page.
	Allow Decision = iota
	// Checking renders a neutral placeholder while the auth state is unknown.
	Checking
	// RedirectLogin sends the visitor to the login page, preserving the origin.
	RedirectLogin
	// RedirectSuperAdminHome sends a super admin to the admin management page.
	RedirectSuperAdminHome
	// DenyInline renders an access restricted message in place of the page.
	DenyInline
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Checking:
		return "checking"
	case RedirectLogin:
		return "redirect_login"
	case RedirectSuperAdminHome:
		return "redirect_super_admin_home"
	case DenyInline:
		return "deny_inline"
	default:
		return "unknown"
	}
}

// Guard decides whether a view may reach path.
type Guard interface {
	Name() string
	Decide(v auth.View, path string) Decision
}

// Authenticated admits any logged-in principal.
// A super admin landing on the dashboard root is sent to admin management instead.
type Authenticated struct{}

// Name implements Guard.
func (Authenticated) Name() string { return "authenticated" }

// Decide implements Guard.
func (Authenticated) Decide(v auth.View, path string) Decision {
	switch {
	case v.State == auth.StateUnknown:
		return Checking
	case !v.IsAuthenticated():
		return RedirectLogin
	case v.IsSuperAdmin() && path == PathDashboard:
		return RedirectSuperAdminHome
	default:
		return Allow
	}
}

// AdminOnly admits ADMIN principals; super admins are redirected to their home.
type AdminOnly struct{}

// Name implements Guard.
func (AdminOnly) Name() string { return "admin" }

// Decide implements Guard.
func (AdminOnly) Decide(v auth.View, _ string) Decision {
	switch {
	case v.State == auth.StateUnknown:
		return Checking
	case !v.IsAuthenticated():
		return RedirectLogin
	case v.IsSuperAdmin():
		return RedirectSuperAdminHome
	default:
		return Allow
	}
}

// SuperAdminOnly admits SUPER_ADMIN principals and denies everyone else inline.
// It is always mounted behind Authenticated.
type SuperAdminOnly struct{}

// Name implements Guard.
func (SuperAdminOnly) Name() string { return "super_admin" }

// Decide implements Guard.
func (SuperAdminOnly) Decide(v auth.View, _ string) Decision {
	if v.IsSuperAdmin() {
		return Allow
	}
	return DenyInline
}

// Evaluate runs guards in order and returns the first non-Allow decision.
func Evaluate(v auth.View, path string, guards ...Guard) Decision {
	for _, g := range guards {
		if d := g.Decide(v, path); d != Allow {
			return d
		}
	}
	return Allow
}

// HomeFor returns the landing page for a role.
func HomeFor(role auth.Role) string {
	if role == auth.RoleSuperAdmin {
		return PathAdminManagement
	}
	return PathDashboard
}
