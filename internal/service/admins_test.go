package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
	"github.com/brokerdesk/admin-console/internal/ports"
)

func ptr[T any](v T) *T { return &v }

func TestCreateAdmin(t *testing.T) {
	tests := []struct {
		name       string
		in         model.NewAdmin
		wantOK     bool
		wantCalls  int
		wantExpiry bool
	}{
		{
			name:   "admin without expiry is rejected locally",
			in:     model.NewAdmin{Username: "bob", Email: "bob@x.io", Password: "secret1", Role: domainauth.RoleAdmin},
			wantOK: false,
		},
		{
			name: "admin with expiry",
			in: model.NewAdmin{Username: "bob", Email: "bob@x.io", Password: "secret1", Role: domainauth.RoleAdmin,
				ExpiresAt: ptr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))},
			wantOK: true, wantCalls: 1, wantExpiry: true,
		},
		{
			name: "super admin expiry is cleared",
			in: model.NewAdmin{Username: "root2", Email: "root2@x.io", Password: "secret1", Role: domainauth.RoleSuperAdmin,
				ExpiresAt: ptr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))},
			wantOK: true, wantCalls: 1,
		},
		{
			name:   "bad email",
			in:     model.NewAdmin{Username: "bob", Email: "nope", Password: "secret1", Role: domainauth.RoleSuperAdmin},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t)
			view := f.loggedIn(t, "s1", domainauth.RoleSuperAdmin)

			ok := f.gw.CreateAdmin(context.Background(), view, tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCalls, f.backend.CallCount("create_admin"))
			if !tt.wantOK {
				assert.Len(t, f.notifier.Errors(), 1)
				return
			}
			call, _ := f.backend.LastCall("create_admin")
			sent := call.Arg.(model.NewAdmin)
			assert.Equal(t, tt.wantExpiry, sent.ExpiresAt != nil)
			assert.Equal(t, "token-s1", call.Token)
			assert.Equal(t, []string{"Admin created successfully"}, f.notifier.Successes())
		})
	}
}

func TestCreateAdmin_WithoutSessionMakesNoCall(t *testing.T) {
	f := newGatewayFixture(t)
	view := domainauth.LoggedOutView()

	ok := f.gw.CreateAdmin(context.Background(), &view, model.NewAdmin{Username: "bob"})
	assert.False(t, ok)
	assert.Empty(t, f.backend.Calls())
	assert.Equal(t, []string{"Authentication required"}, f.notifier.Errors())
}

func TestUpdateAdmin_PasswordFollowsProfile(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleSuperAdmin)
	f.backend.Admins = []model.AdminRecord{{ID: "a2", Username: "ann", Role: domainauth.RoleAdmin}}

	ok := f.gw.UpdateAdmin(context.Background(), view, "a2", model.AdminPatch{
		Email:    ptr("ann@new.io"),
		Password: ptr("newpass"),
	})
	require.True(t, ok)

	calls := f.backend.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "update_admin", calls[0].Op)
	assert.Nil(t, calls[0].Arg.(model.AdminPatch).Password, "password is not part of the profile update")
	assert.Equal(t, "change_password", calls[1].Op)
	assert.Equal(t, ports.PasswordChangeRequest{AdminID: "a2", New: "newpass"}, calls[1].Arg)
}

func TestUpdateAdmin_PasswordFailureReportsFalseWithoutRollback(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleSuperAdmin)
	f.backend.Admins = []model.AdminRecord{{ID: "a2", Username: "ann", Role: domainauth.RoleAdmin}}
	f.backend.Fail("change_password", errors.New("500"))

	ok := f.gw.UpdateAdmin(context.Background(), view, "a2", model.AdminPatch{
		Username: ptr("annie"),
		Password: ptr("newpass"),
	})
	assert.False(t, ok)
	assert.Equal(t, "annie", f.backend.Admins[0].Username)
	assert.Equal(t, []string{"Failed to update admin"}, f.notifier.Errors())
}

func TestUpdateAdmin_UnauthorizedLogsOut(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleSuperAdmin)
	f.backend.Fail("update_admin", apperrors.SessionExpired(errors.New("401")))

	ok := f.gw.UpdateAdmin(context.Background(), view, "a2", model.AdminPatch{Username: ptr("annie")})
	assert.False(t, ok)
	assert.Equal(t, domainauth.StateLoggedOut, view.State)
	assert.Equal(t, 0, f.sessions.Len())
	assert.Equal(t, []string{"Your session has expired. Please sign in again."}, f.notifier.Errors())
}

func TestToggleAdminStatus(t *testing.T) {
	tests := []struct {
		action     model.ToggleAction
		wantStatus domainauth.Status
		wantExtend bool
		wantMsg    string
	}{
		{model.TogglePause, domainauth.StatusInactive, false, "Admin account paused"},
		{model.ToggleActivate, domainauth.StatusActive, false, "Admin account activated"},
		{model.ToggleExtend, domainauth.StatusActive, true, "Admin expiration extended"},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			f := newGatewayFixture(t)
			view := f.loggedIn(t, "s1", domainauth.RoleSuperAdmin)
			f.backend.Admins = []model.AdminRecord{{
				ID: "a2", Role: domainauth.RoleAdmin, Status: domainauth.StatusPaused,
				ExpiresAt: ptr(f.now.Add(-time.Hour)),
			}}

			require.True(t, f.gw.ToggleAdminStatus(context.Background(), view, "a2", tt.action))
			got := f.backend.Admins[0]
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantExtend {
				require.NotNil(t, got.ExpiresAt)
				assert.Equal(t, f.now.Add(30*24*time.Hour), *got.ExpiresAt)
			}
			assert.Equal(t, []string{tt.wantMsg}, f.notifier.Successes())
		})
	}
}

func TestToggleAdminStatus_UnknownAction(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleSuperAdmin)
	assert.False(t, f.gw.ToggleAdminStatus(context.Background(), view, "a2", model.ToggleAction("explode")))
	assert.Empty(t, f.backend.Calls())
}

func TestUpdateAdminPassword(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleSuperAdmin)

	assert.False(t, f.gw.UpdateAdminPassword(context.Background(), view, "a2", "123"))
	assert.Empty(t, f.backend.Calls(), "short password rejected locally")

	assert.True(t, f.gw.UpdateAdminPassword(context.Background(), view, "a2", "longenough"))
	call, ok := f.backend.LastCall("change_password")
	require.True(t, ok)
	assert.Equal(t, "a2", call.ID)
}

func TestDeleteAdmin_RefusesSelf(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleSuperAdmin)
	f.backend.Admins = []model.AdminRecord{{ID: "admin-s1"}, {ID: "a2"}}

	assert.False(t, f.gw.DeleteAdmin(context.Background(), view, "admin-s1"))
	assert.True(t, f.gw.DeleteAdmin(context.Background(), view, "a2"))
	assert.Len(t, f.backend.Admins, 1)
}

func TestListAdmins(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleSuperAdmin)
	f.backend.Admins = []model.AdminRecord{{ID: "a1"}, {ID: "a2"}}

	admins, ok := f.gw.ListAdmins(context.Background(), view)
	require.True(t, ok)
	assert.Len(t, admins, 2)
	assert.Empty(t, f.notifier.Notices(), "reads are silent on success")
}

func TestUpdateCurrentAdmin_BumpsVersionAndPersists(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)
	f.backend.Profile = domainauth.Principal{ID: "admin-s1", Email: "s1@example.com"}

	ok := f.gw.UpdateCurrentAdmin(context.Background(), view, model.ProfilePatch{Username: "renamed"})
	require.True(t, ok)
	assert.Equal(t, "renamed", view.Session.Principal.Name)
	assert.Equal(t, int64(2), view.Session.Version)

	stored := f.gw.Restore(context.Background(), "s1")
	require.True(t, stored.IsAuthenticated())
	assert.Equal(t, "renamed", stored.Session.Principal.Name)
	assert.Equal(t, int64(2), stored.Session.Version)
	assert.Equal(t, "token-s1", stored.Session.Token, "token is untouched")
}

func TestUpdateCurrentAdmin_InvalidUsername(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)

	assert.False(t, f.gw.UpdateCurrentAdmin(context.Background(), view, model.ProfilePatch{Username: "a b"}))
	assert.Empty(t, f.backend.Calls())
	assert.Equal(t, int64(1), view.Session.Version)
}

func TestChangeOwnPassword(t *testing.T) {
	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)

	assert.False(t, f.gw.ChangeOwnPassword(context.Background(), view, model.PasswordChange{Current: "old", New: "newpass", Confirm: "other"}))
	assert.Empty(t, f.backend.Calls())

	assert.True(t, f.gw.ChangeOwnPassword(context.Background(), view, model.PasswordChange{Current: "old", New: "newpass", Confirm: "newpass"}))
	call, _ := f.backend.LastCall("change_password")
	assert.Equal(t, ports.PasswordChangeRequest{Current: "old", New: "newpass"}, call.Arg)
}

func TestCreatePolicy(t *testing.T) {
	valid := model.NewPolicy{
		UserID:    "u1",
		Insurance: model.InsuranceInput{Type: "Comprehensive", InsurerName: "Acme"},
		Policy: model.PolicyInput{
			PolicyHolder: "Jo Bloggs",
			CoverStart:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			CoverEnd:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	reversed := valid
	reversed.Policy.CoverEnd = valid.Policy.CoverStart.Add(-24 * time.Hour)

	f := newGatewayFixture(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)

	_, ok := f.gw.CreatePolicy(context.Background(), view, reversed)
	assert.False(t, ok)
	assert.Equal(t, 0, f.backend.CallCount("create_policy"))
	assert.Equal(t, []string{"Cover end date must be after the start date"}, f.notifier.Errors())

	created, ok := f.gw.CreatePolicy(context.Background(), view, valid)
	require.True(t, ok)
	assert.Equal(t, model.PolicyActive, created.Status, "status defaults to Active")
}
