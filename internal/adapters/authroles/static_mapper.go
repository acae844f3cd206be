package authroles

import (
	"strings"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
)

// StaticMapper maps the backend's role string onto application roles.
// SuperAdminRole (case-insensitive) becomes SUPER_ADMIN; everything else is ADMIN.
type StaticMapper struct {
	SuperAdminRole string
}

// Map implements ports.RoleMapper.
func (m StaticMapper) Map(backendRole string) domainauth.Role {
	want := m.SuperAdminRole
	if want == "" {
		want = "superadmin"
	}
	if strings.EqualFold(strings.TrimSpace(backendRole), want) {
		return domainauth.RoleSuperAdmin
	}
	return domainauth.RoleAdmin
}
