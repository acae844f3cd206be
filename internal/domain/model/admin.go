package model

import (
	"strings"
	"time"

	"github.com/brokerdesk/admin-console/internal/domain/auth"
)

// ExtendPeriod is how far an extend action pushes an admin's expiry.
const ExtendPeriod = 30 * 24 * time.Hour

const minPasswordLen = 6

// AdminRecord is an administrator account as listed by the backend.
type AdminRecord struct {
	ID        string
	Username  string
	Email     string
	Role      auth.Role
	Status    auth.Status
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Expired reports whether the record's expiry has passed.
func (a AdminRecord) Expired(now time.Time) bool { return IsExpired(a.ExpiresAt, now) }

// NewAdmin is the create-admin form.
type NewAdmin struct {
	Username  string    `form:"username" validate:"required,min=3,max=64,username"`
	Email     string    `form:"email"    validate:"required,email"`
	Password  string    `form:"password" validate:"required,min=6"`
	Role      auth.Role `form:"role"     validate:"required,oneof=ADMIN SUPER_ADMIN"`
	ExpiresAt *time.Time
}

// Validate normalises and checks the request. ADMIN accounts need a future
// expiry; SUPER_ADMIN accounts never carry one, so any supplied expiry is dropped.
func (n *NewAdmin) Validate(now time.Time) error {
	n.Username = strings.TrimSpace(n.Username)
	n.Email = strings.TrimSpace(n.Email)
	ve := &ValidationError{}
	checkStruct(ve, n)

	switch n.Role {
	case auth.RoleSuperAdmin:
		n.ExpiresAt = nil
	case auth.RoleAdmin:
		checkAdminExpiry(ve, n.ExpiresAt, now)
	}
	return ve.orNil()
}

func checkAdminExpiry(ve *ValidationError, exp *time.Time, now time.Time) {
	switch {
	case exp == nil:
		ve.add("expiresAt", "Expiration date is required for admins")
	case !exp.After(now):
		ve.add("expiresAt", "Expiration date must be in the future")
	}
}

// AdminPatch is a partial update of another administrator.
// Nil fields are left unchanged.
type AdminPatch struct {
	Username  *string
	Email     *string
	Role      *auth.Role
	Status    *auth.Status
	ExpiresAt *time.Time
	// Password, when set, is applied by a follow-up change-password call.
	Password *string
}

// HasUpdates reports whether any field is set.
func (p *AdminPatch) HasUpdates() bool {
	return p.Username != nil || p.Email != nil || p.Role != nil || p.Status != nil ||
		p.ExpiresAt != nil || p.Password != nil
}

// HasProfileUpdates reports whether anything besides the password is set.
func (p *AdminPatch) HasProfileUpdates() bool {
	return p.Username != nil || p.Email != nil || p.Role != nil || p.Status != nil || p.ExpiresAt != nil
}

// Validate checks the patch. A role change to SUPER_ADMIN drops any expiry;
// a role change to ADMIN needs a future expiry.
func (p *AdminPatch) Validate(now time.Time) error {
	ve := &ValidationError{}
	if !p.HasUpdates() {
		ve.add("", "At least one field must be updated")
		return ve
	}
	if p.Username != nil {
		u := strings.TrimSpace(*p.Username)
		p.Username = &u
		if err := structValidator().Var(u, "required,min=3,max=64,username"); err != nil {
			ve.add("username", "Username must be 3-64 letters, numbers, dots, dashes or underscores")
		}
	}
	if p.Email != nil {
		e := strings.TrimSpace(*p.Email)
		p.Email = &e
		if err := structValidator().Var(e, "required,email"); err != nil {
			ve.add("email", "Please enter a valid email address")
		}
	}
	if p.Password != nil && len(*p.Password) < minPasswordLen {
		ve.add("password", "Password must be at least 6 characters")
	}
	if p.Status != nil {
		switch *p.Status {
		case auth.StatusActive, auth.StatusInactive, auth.StatusPaused:
		default:
			ve.add("status", "Status is invalid")
		}
	}
	if p.Role != nil {
		switch *p.Role {
		case auth.RoleSuperAdmin:
			p.ExpiresAt = nil
		case auth.RoleAdmin:
			checkAdminExpiry(ve, p.ExpiresAt, now)
		default:
			ve.add("role", "Role must be one of: ADMIN SUPER_ADMIN")
		}
	}
	return ve.orNil()
}

// ProfilePatch updates the signed-in administrator's own profile.
type ProfilePatch struct {
	Username string `form:"username" validate:"required,min=3,max=64,username"`
	Email    string `form:"email"    validate:"omitempty,email"`
}

// Validate normalises and checks the patch.
func (p *ProfilePatch) Validate() error {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
	ve := &ValidationError{}
	checkStruct(ve, p)
	return ve.orNil()
}

// PasswordChange is the settings form for changing one's own password.
type PasswordChange struct {
	Current string `form:"currentPassword" validate:"required"`
	New     string `form:"newPassword"     validate:"required,min=6"`
	Confirm string `form:"confirmPassword" validate:"required"`
}

// Validate checks the form.
func (c *PasswordChange) Validate() error {
	ve := &ValidationError{}
	checkStruct(ve, c)
	if c.New != "" && c.Confirm != "" && c.New != c.Confirm {
		ve.add("confirmPassword", "New passwords do not match")
	}
	if c.Current != "" && c.New != "" && c.Current == c.New {
		ve.add("newPassword", "New password must differ from the current password")
	}
	return ve.orNil()
}

// ToggleAction is a status toggle applied to an admin account.
type ToggleAction string

const (
	TogglePause    ToggleAction = "pause"
	ToggleActivate ToggleAction = "activate"
	ToggleExtend   ToggleAction = "extend"
)

// ParseToggleAction validates an action name.
func ParseToggleAction(v string) (ToggleAction, bool) {
	a := ToggleAction(strings.ToLower(strings.TrimSpace(v)))
	switch a {
	case TogglePause, ToggleActivate, ToggleExtend:
		return a, true
	default:
		return "", false
	}
}

// Label returns the button text for the action.
func (a ToggleAction) Label() string {
	switch a {
	case TogglePause:
		return "Pause"
	case ToggleExtend:
		return "Extend 30 days"
	default:
		return "Activate"
	}
}

// SuccessMessage returns the notification shown after the action succeeds.
func (a ToggleAction) SuccessMessage() string {
	switch a {
	case TogglePause:
		return "Admin account paused"
	case ToggleExtend:
		return "Admin expiration extended"
	default:
		return "Admin account activated"
	}
}

// ResolveToggleAction picks the action the status toggle should issue for a.
// Active accounts within their expiry are paused. Paused or expired accounts
// are extended when they carry an expiry, otherwise activated.
func ResolveToggleAction(a AdminRecord, now time.Time) ToggleAction {
	expired := a.Expired(now)
	switch {
	case a.Status == auth.StatusActive && !expired:
		return TogglePause
	case a.Status == auth.StatusPaused || expired:
		if a.ExpiresAt != nil {
			return ToggleExtend
		}
		return ToggleActivate
	default:
		return ToggleActivate
	}
}

// TogglePatch returns the update that applies action at now.
func TogglePatch(action ToggleAction, now time.Time) AdminPatch {
	var status auth.Status
	var patch AdminPatch
	switch action {
	case TogglePause:
		status = auth.StatusInactive
	case ToggleExtend:
		status = auth.StatusActive
		exp := now.Add(ExtendPeriod)
		patch.ExpiresAt = &exp
	default:
		status = auth.StatusActive
	}
	patch.Status = &status
	return patch
}
