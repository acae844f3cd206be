package backend

import (
	"context"
	"net/http"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
	"github.com/brokerdesk/admin-console/internal/ports"
)

// CreateAdmin calls POST /admin/auth/register.
func (c *Client) CreateAdmin(ctx context.Context, token string, in model.NewAdmin) error {
	return c.do(ctx, call{
		op:     "create_admin",
		method: http.MethodPost,
		path:   "/admin/auth/register",
		token:  token,
		body:   toCreateAdminRequest(in),
	})
}

// ListAdmins calls GET /admin/auth/admins.
func (c *Client) ListAdmins(ctx context.Context, token string) ([]model.AdminRecord, error) {
	var out []adminDTO
	if err := c.do(ctx, call{
		op:     "list_admins",
		method: http.MethodGet,
		path:   "/admin/auth/admins",
		token:  token,
		out:    &out,
	}); err != nil {
		return nil, err
	}
	return mapSlice(out, toAdminRecord), nil
}

// UpdateAdmin calls PUT /admin/auth/admins/:id.
func (c *Client) UpdateAdmin(ctx context.Context, token, id string, patch model.AdminPatch) error {
	return c.do(ctx, call{
		op:     "update_admin",
		method: http.MethodPut,
		path:   "/admin/auth/admins/" + escape(id),
		token:  token,
		body:   toUpdateAdminRequest(patch),
	})
}

// DeleteAdmin calls DELETE /admin/auth/admins/:id.
func (c *Client) DeleteAdmin(ctx context.Context, token, id string) error {
	return c.do(ctx, call{
		op:     "delete_admin",
		method: http.MethodDelete,
		path:   "/admin/auth/admins/" + escape(id),
		token:  token,
	})
}

// UpdateProfile calls PUT /admin/auth/profile and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, token string, patch model.ProfilePatch) (domainauth.Principal, error) {
	var out adminDTO
	if err := c.do(ctx, call{
		op:     "update_profile",
		method: http.MethodPut,
		path:   "/admin/auth/profile",
		token:  token,
		body:   profileRequest{Username: patch.Username, Email: patch.Email},
		out:    &out,
	}); err != nil {
		return domainauth.Principal{}, err
	}
	rec := toAdminRecord(out)
	return domainauth.Principal{
		ID:        rec.ID,
		Name:      rec.Username,
		Email:     rec.Email,
		Role:      rec.Role,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// ChangePassword calls PUT /admin/auth/change-password. AdminID targets
// another administrator; otherwise the token owner's password changes.
func (c *Client) ChangePassword(ctx context.Context, token string, req ports.PasswordChangeRequest) error {
	return c.do(ctx, call{
		op:     "change_password",
		method: http.MethodPut,
		path:   "/admin/auth/change-password",
		token:  token,
		body: changePasswordRequest{
			AdminID:         req.AdminID,
			CurrentPassword: req.Current,
			NewPassword:     req.New,
		},
	})
}
