package httpx

import (
	"net/http"
	"strings"

	"github.com/brokerdesk/admin-console/internal/domain/access"
	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
)

type adminsContent struct {
	Admins []model.AdminRecord
	Loaded bool
	SelfID string
}

// AdminManagement serves GET /admin-management.
func (h *Handlers) AdminManagement(w http.ResponseWriter, r *http.Request) {
	view := ViewFromContext(r.Context())
	admins, ok := h.Gateway.ListAdmins(r.Context(), view)
	if !ok && !view.IsAuthenticated() {
		h.toLogin(w, r)
		return
	}
	p, _ := view.Principal()
	h.render(w, r, page{
		Meta:    PageMeta{Title: "Admin Management", Page: PageAdminManagement},
		Content: adminsContent{Admins: admins, Loaded: ok, SelfID: p.ID},
	})
}

// CreateAdmin serves POST /admin-management/admins.
func (h *Handlers) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	in := model.NewAdmin{
		Username:  r.FormValue("username"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		Role:      formRole(r),
		ExpiresAt: formDatePtr(r, "expiresAt"),
	}
	h.Gateway.CreateAdmin(r.Context(), ViewFromContext(r.Context()), in)
	h.finish(w, r, access.PathAdminManagement)
}

// UpdateAdmin serves POST /admin-management/admins/{id}. Blank fields are left unchanged.
func (h *Handlers) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	patch := model.AdminPatch{
		Username:  formOptional(r, "username"),
		Email:     formOptional(r, "email"),
		ExpiresAt: formDatePtr(r, "expiresAt"),
	}
	if r.FormValue("role") != "" {
		role := formRole(r)
		patch.Role = &role
	}
	if v := formOptional(r, "status"); v != nil {
		st := domainauth.ParseStatus(*v)
		patch.Status = &st
	}
	if pw := r.FormValue("password"); pw != "" {
		patch.Password = &pw
	}
	h.Gateway.UpdateAdmin(r.Context(), ViewFromContext(r.Context()), r.PathValue("id"), patch)
	h.finish(w, r, access.PathAdminManagement)
}

// ToggleAdmin serves POST /admin-management/admins/{id}/toggle.
func (h *Handlers) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	action, ok := model.ParseToggleAction(r.FormValue("action"))
	if !ok {
		addNotice(r.Context(), Notice{Kind: NoticeError, Message: "Unknown status action"})
		h.finish(w, r, access.PathAdminManagement)
		return
	}
	h.Gateway.ToggleAdminStatus(r.Context(), ViewFromContext(r.Context()), r.PathValue("id"), action)
	h.finish(w, r, access.PathAdminManagement)
}

// SetAdminPassword serves POST /admin-management/admins/{id}/password.
func (h *Handlers) SetAdminPassword(w http.ResponseWriter, r *http.Request) {
	h.Gateway.UpdateAdminPassword(r.Context(), ViewFromContext(r.Context()), r.PathValue("id"), r.FormValue("password"))
	h.finish(w, r, access.PathAdminManagement)
}

// DeleteAdmin serves POST /admin-management/admins/{id}/delete.
func (h *Handlers) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	h.Gateway.DeleteAdmin(r.Context(), ViewFromContext(r.Context()), r.PathValue("id"))
	h.finish(w, r, access.PathAdminManagement)
}

// formRole reads the role select; anything unrecognised is left for validation to reject.
func formRole(r *http.Request) domainauth.Role {
	v := strings.TrimSpace(r.FormValue("role"))
	if role, ok := domainauth.ParseRole(v); ok {
		return role
	}
	return domainauth.Role(v)
}

type settingsContent struct {
	Principal domainauth.Principal
}

// Settings serves GET /settings.
func (h *Handlers) Settings(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	h.render(w, r, page{
		Meta:    PageMeta{Title: "Settings", Page: PageSettings},
		Content: settingsContent{Principal: p},
	})
}

// UpdateProfile serves POST /settings/profile.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	patch := model.ProfilePatch{Username: r.FormValue("username"), Email: r.FormValue("email")}
	h.Gateway.UpdateCurrentAdmin(r.Context(), ViewFromContext(r.Context()), patch)
	h.finish(w, r, access.PathSettings)
}

// ChangePassword serves POST /settings/password.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	change := model.PasswordChange{
		Current: r.FormValue("currentPassword"),
		New:     r.FormValue("newPassword"),
		Confirm: r.FormValue("confirmPassword"),
	}
	h.Gateway.ChangeOwnPassword(r.Context(), ViewFromContext(r.Context()), change)
	h.finish(w, r, access.PathSettings)
}
