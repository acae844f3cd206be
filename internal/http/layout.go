package httpx

import (
	"net/http"

	"github.com/brokerdesk/admin-console/internal/domain/access"
	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
)

// Page identifiers; each maps to a "<page>-content" template.
const (
	PageLogin           = "login"
	PageDashboard       = "dashboard"
	PageUsers           = "users"
	PageUser            = "user"
	PagePolicies        = "policies"
	PagePolicy          = "policy"
	PageDocuments       = "documents"
	PageAdminManagement = "admin-management"
	PageSettings        = "settings"
	PageChecking        = "checking"
	PageRestricted      = "restricted"
	PageNotFound        = "not-found"
)

func contentTemplateFor(page string) string {
	if page == "" {
		return PageNotFound + "-content"
	}
	return page + "-content"
}

// PageMeta names the page being rendered.
type PageMeta struct {
	Title string
	Page  string
}

// UserInfo is the signed-in administrator as shown in the chrome.
type UserInfo struct {
	Name         string
	Email        string
	RoleLabel    string
	IsSuperAdmin bool
}

// NavItem is a sidebar entry with its active flag resolved.
type NavItem struct {
	access.NavEntry
	Active bool
}

// Layout is the shared chrome data for every page.
type Layout struct {
	Title     string
	Page      string
	Path      string
	CSRFToken string
	User      *UserInfo
	Nav       []NavItem
	Notices   []Notice
}

// PageData is what every template receives.
type PageData struct {
	Layout  Layout
	Content any
}

// buildLayout derives the chrome from the request's view. The sidebar comes
// from the role menu; nothing here decides access.
func buildLayout(r *http.Request, meta PageMeta, notices []Notice) Layout {
	l := Layout{
		Title:     meta.Title,
		Page:      meta.Page,
		Path:      r.URL.Path,
		CSRFToken: CSRFToken(r),
		Notices:   notices,
	}
	p, ok := ViewFromContext(r.Context()).Principal()
	if !ok {
		return l
	}
	l.User = &UserInfo{
		Name:         p.Name,
		Email:        p.Email,
		RoleLabel:    p.Role.Label(),
		IsSuperAdmin: p.Role == domainauth.RoleSuperAdmin,
	}
	for _, e := range access.Menu(p.Role) {
		l.Nav = append(l.Nav, NavItem{NavEntry: e, Active: navActive(e.Path, r.URL.Path)})
	}
	return l
}

func navActive(entry, path string) bool {
	if entry == access.PathDashboard {
		return path == access.PathDashboard
	}
	return path == entry || (len(path) > len(entry) && path[:len(entry)] == entry && path[len(entry)] == '/')
}
