package access

import (
	"strings"

	"github.com/brokerdesk/admin-console/internal/domain/auth"
)

// Page paths.
const (
	PathLogin           = "/login"
	PathLogout          = "/logout"
	PathDashboard       = "/"
	PathUsers           = "/users"
	PathPolicies        = "/policies"
	PathDocuments       = "/documents"
	PathAdminManagement = "/admin-management"
	PathSettings        = "/settings"
)

// Route binds a path pattern to the guards protecting it.
// Segments written as {name} match any single non-empty segment.
type Route struct {
	Pattern string
	Guards  []Guard
}

var (
	authOnly       = []Guard{Authenticated{}}
	adminGuards    = []Guard{Authenticated{}, AdminOnly{}}
	superAdminOnly = []Guard{Authenticated{}, SuperAdminOnly{}}
)

// Routes is the guarded route table.
var Routes = []Route{
	{Pattern: PathDashboard, Guards: adminGuards},
	{Pattern: PathUsers, Guards: adminGuards},
	{Pattern: PathUsers + "/{id}", Guards: adminGuards},
	{Pattern: PathPolicies, Guards: adminGuards},
	{Pattern: PathPolicies + "/{id}", Guards: adminGuards},
	{Pattern: PathDocuments, Guards: adminGuards},
	{Pattern: PathAdminManagement, Guards: superAdminOnly},
	{Pattern: PathSettings, Guards: authOnly},
	{Pattern: PathLogout, Guards: authOnly},
}

// Lookup returns the route matching path.
func Lookup(path string) (Route, bool) {
	for _, r := range Routes {
		if matchPattern(r.Pattern, path) {
			return r, true
		}
	}
	return Route{}, false
}

// Permitted reports whether a logged-in principal with role reaches path
// without being redirected or denied.
func Permitted(role auth.Role, path string) bool {
	r, ok := Lookup(path)
	if !ok {
		return false
	}
	v := auth.View{
		State:   auth.StateLoggedIn,
		Session: &auth.Session{ID: "permitted", Principal: auth.Principal{ID: "permitted", Role: role}, Token: "permitted"},
	}
	return Evaluate(v, path, r.Guards...) == Allow
}

func matchPattern(pattern, path string) bool {
	if pattern == path {
		return true
	}
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], "{") && strings.HasSuffix(ps[i], "}") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
