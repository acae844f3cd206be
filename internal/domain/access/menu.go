package access

import "github.com/brokerdesk/admin-console/internal/domain/auth"

// NavEntry is one sidebar item.
type NavEntry struct {
	Label string
	Path  string
	Icon  string
	// Post marks entries that submit a form instead of following a link.
	Post bool
}

var (
	navDashboard  = NavEntry{Label: "Dashboard", Path: PathDashboard, Icon: "home"}
	navUsers      = NavEntry{Label: "Users", Path: PathUsers, Icon: "users"}
	navPolicies   = NavEntry{Label: "Policies", Path: PathPolicies, Icon: "file-text"}
	navDocuments  = NavEntry{Label: "Documents", Path: PathDocuments, Icon: "file"}
	navAdmins     = NavEntry{Label: "Admin Management", Path: PathAdminManagement, Icon: "shield"}
	navSettings   = NavEntry{Label: "Settings", Path: PathSettings, Icon: "settings"}
	navLogout     = NavEntry{Label: "Logout", Path: PathLogout, Icon: "log-out", Post: true}
	adminMenu     = []NavEntry{navDashboard, navUsers, navPolicies, navDocuments, navSettings, navLogout}
	superAdminNav = []NavEntry{navAdmins, navSettings, navLogout}
)

// Menu returns the ordered sidebar entries for role.
// Unknown roles get an empty menu.
func Menu(role auth.Role) []NavEntry {
	var src []NavEntry
	switch role {
	case auth.RoleAdmin:
		src = adminMenu
	case auth.RoleSuperAdmin:
		src = superAdminNav
	default:
		return nil
	}
	out := make([]NavEntry, len(src))
	copy(out, src)
	return out
}
