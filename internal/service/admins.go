package service

import (
	"context"
	"log/slog"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
	"github.com/brokerdesk/admin-console/internal/ports"
)

// CreateAdmin validates in and registers a new administrator.
// Invalid input is rejected without contacting the backend.
func (g *AuthGateway) CreateAdmin(ctx context.Context, view *domainauth.View, in model.NewAdmin) bool {
	return g.run(ctx, view, outcome{
		op:      "create_admin",
		success: "Admin created successfully",
		failure: "Failed to create admin",
	}, func(token string) error {
		if err := in.Validate(g.now()); err != nil {
			return err
		}
		return g.backend.CreateAdmin(ctx, token, in)
	})
}

// ListAdmins returns every administrator record.
func (g *AuthGateway) ListAdmins(ctx context.Context, view *domainauth.View) ([]model.AdminRecord, bool) {
	var admins []model.AdminRecord
	ok := g.run(ctx, view, outcome{op: "list_admins", failure: "Failed to load admins"}, func(token string) error {
		var err error
		admins, err = g.backend.ListAdmins(ctx, token)
		return err
	})
	return admins, ok
}

// UpdateAdmin applies a partial update. A password in the patch is sent by a
// separate change-password call after the profile update succeeds; if that
// second call fails the whole operation reports false and the first update stays.
func (g *AuthGateway) UpdateAdmin(ctx context.Context, view *domainauth.View, id string, patch model.AdminPatch) bool {
	return g.run(ctx, view, outcome{
		op:      "update_admin",
		success: "Admin updated successfully",
		failure: "Failed to update admin",
	}, func(token string) error {
		if id == "" {
			return apperrors.Validation("Admin id is required")
		}
		if err := patch.Validate(g.now()); err != nil {
			return err
		}
		if patch.HasProfileUpdates() {
			profile := patch
			profile.Password = nil
			if err := g.backend.UpdateAdmin(ctx, token, id, profile); err != nil {
				return err
			}
		}
		if patch.Password != nil {
			return g.backend.ChangePassword(ctx, token, ports.PasswordChangeRequest{AdminID: id, New: *patch.Password})
		}
		return nil
	})
}

// ToggleAdminStatus applies a pause, activate or extend action to an admin.
func (g *AuthGateway) ToggleAdminStatus(ctx context.Context, view *domainauth.View, id string, action model.ToggleAction) bool {
	return g.run(ctx, view, outcome{
		op:      "toggle_admin_status",
		success: action.SuccessMessage(),
		failure: "Failed to update admin status",
	}, func(token string) error {
		if _, ok := model.ParseToggleAction(string(action)); !ok || id == "" {
			return apperrors.Validation("Unknown status action")
		}
		return g.backend.UpdateAdmin(ctx, token, id, model.TogglePatch(action, g.now()))
	})
}

// UpdateAdminPassword sets another administrator's password.
func (g *AuthGateway) UpdateAdminPassword(ctx context.Context, view *domainauth.View, id, newPassword string) bool {
	return g.run(ctx, view, outcome{
		op:      "update_admin_password",
		success: "Password updated successfully",
		failure: "Failed to update password",
	}, func(token string) error {
		if id == "" {
			return apperrors.Validation("Admin id is required")
		}
		patch := model.AdminPatch{Password: &newPassword}
		if err := patch.Validate(g.now()); err != nil {
			return err
		}
		return g.backend.ChangePassword(ctx, token, ports.PasswordChangeRequest{AdminID: id, New: newPassword})
	})
}

// DeleteAdmin removes an administrator. Deleting oneself is refused.
func (g *AuthGateway) DeleteAdmin(ctx context.Context, view *domainauth.View, id string) bool {
	return g.run(ctx, view, outcome{
		op:      "delete_admin",
		success: "Admin deleted successfully",
		failure: "Failed to delete admin",
	}, func(token string) error {
		if p, _ := view.Principal(); p.ID == id {
			return apperrors.Validation("You cannot delete your own account")
		}
		return g.backend.DeleteAdmin(ctx, token, id)
	})
}

// UpdateCurrentAdmin changes the signed-in administrator's own profile. On
// success the session principal is rewritten, its Version bumped and the
// session re-saved.
func (g *AuthGateway) UpdateCurrentAdmin(ctx context.Context, view *domainauth.View, patch model.ProfilePatch) bool {
	return g.run(ctx, view, outcome{
		op:      "update_profile",
		success: "Profile updated successfully",
		failure: "Failed to update profile",
	}, func(token string) error {
		if err := patch.Validate(); err != nil {
			return err
		}
		stored, err := g.backend.UpdateProfile(ctx, token, patch)
		if err != nil {
			return err
		}

		next := *view.Session
		next.Principal.Name = firstNonEmpty(stored.Name, patch.Username)
		next.Principal.Email = firstNonEmpty(stored.Email, patch.Email, next.Principal.Email)
		next.Version++
		if err := g.sessions.Save(ctx, next); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "save updated session")
		}
		view.Session = &next
		g.log().InfoContext(ctx, "profile updated",
			slog.String("admin_id", next.Principal.ID),
			slog.Int64("version", next.Version),
		)
		return nil
	})
}

// ChangeOwnPassword changes the signed-in administrator's password.
func (g *AuthGateway) ChangeOwnPassword(ctx context.Context, view *domainauth.View, change model.PasswordChange) bool {
	return g.run(ctx, view, outcome{
		op:      "change_password",
		success: "Password changed successfully",
		failure: "Failed to change password",
	}, func(token string) error {
		if err := change.Validate(); err != nil {
			return err
		}
		return g.backend.ChangePassword(ctx, token, ports.PasswordChangeRequest{Current: change.Current, New: change.New})
	})
}

// CreatePolicy validates the nested policy form and submits it.
func (g *AuthGateway) CreatePolicy(ctx context.Context, view *domainauth.View, in model.NewPolicy) (model.Policy, bool) {
	var created model.Policy
	ok := g.run(ctx, view, outcome{
		op:      "create_policy",
		success: "Policy created successfully",
		failure: "Failed to create policy",
	}, func(token string) error {
		if err := in.Validate(); err != nil {
			return err
		}
		var err error
		created, err = g.backend.CreatePolicy(ctx, token, in)
		return err
	})
	return created, ok
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
