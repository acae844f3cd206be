package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/admin-console/internal/domain/auth"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func validNewAdmin() NewAdmin {
	return NewAdmin{
		Username:  "jane.doe",
		Email:     "jane@example.com",
		Password:  "secret1",
		Role:      auth.RoleAdmin,
		ExpiresAt: ptr(testNow.Add(48 * time.Hour)),
	}
}

func TestNewAdmin_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*NewAdmin)
		wantField string
	}{
		{name: "valid admin", mutate: func(*NewAdmin) {}},
		{name: "admin without expiry", mutate: func(n *NewAdmin) { n.ExpiresAt = nil }, wantField: "expiresAt"},
		{name: "admin with past expiry", mutate: func(n *NewAdmin) { n.ExpiresAt = ptr(testNow.Add(-time.Hour)) }, wantField: "expiresAt"},
		{name: "missing username", mutate: func(n *NewAdmin) { n.Username = "  " }, wantField: "username"},
		{name: "bad username chars", mutate: func(n *NewAdmin) { n.Username = "jane doe" }, wantField: "username"},
		{name: "bad email", mutate: func(n *NewAdmin) { n.Email = "nope" }, wantField: "email"},
		{name: "short password", mutate: func(n *NewAdmin) { n.Password = "123" }, wantField: "password"},
		{name: "unknown role", mutate: func(n *NewAdmin) { n.Role = "OWNER" }, wantField: "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNewAdmin()
			tt.mutate(&n)
			err := n.Validate(testNow)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Map(), tt.wantField)
		})
	}
}

func TestNewAdmin_SuperAdminExpiryIsCleared(t *testing.T) {
	n := validNewAdmin()
	n.Role = auth.RoleSuperAdmin
	require.NoError(t, n.Validate(testNow))
	assert.Nil(t, n.ExpiresAt)
}

func TestAdminPatch_Validate(t *testing.T) {
	empty := AdminPatch{}
	require.Error(t, empty.Validate(testNow))

	toSuper := AdminPatch{Role: ptr(auth.RoleSuperAdmin), ExpiresAt: ptr(testNow.Add(time.Hour))}
	require.NoError(t, toSuper.Validate(testNow))
	assert.Nil(t, toSuper.ExpiresAt)

	toAdmin := AdminPatch{Role: ptr(auth.RoleAdmin)}
	err := toAdmin.Validate(testNow)
	require.Error(t, err)
	assert.Equal(t, "expiresAt", apperrors.GetField(err))

	pw := AdminPatch{Password: ptr("abc")}
	assert.Error(t, pw.Validate(testNow))

	name := AdminPatch{Username: ptr("  renamed  ")}
	require.NoError(t, name.Validate(testNow))
	assert.Equal(t, "renamed", *name.Username)
	assert.True(t, name.HasProfileUpdates())

	onlyPw := AdminPatch{Password: ptr("longenough")}
	assert.False(t, onlyPw.HasProfileUpdates())
}

func TestPasswordChange_Validate(t *testing.T) {
	ok := PasswordChange{Current: "old-pass", New: "new-pass", Confirm: "new-pass"}
	require.NoError(t, ok.Validate())

	mismatch := PasswordChange{Current: "old-pass", New: "new-pass", Confirm: "other"}
	err := mismatch.Validate()
	require.Error(t, err)
	assert.Equal(t, "New passwords do not match", apperrors.UserMessage(err))

	same := PasswordChange{Current: "same-pass", New: "same-pass", Confirm: "same-pass"}
	assert.Error(t, same.Validate())

	missing := PasswordChange{New: "new-pass", Confirm: "new-pass"}
	err = missing.Validate()
	require.Error(t, err)
	assert.Equal(t, "currentPassword", apperrors.GetField(err))
}

func TestResolveToggleAction(t *testing.T) {
	future := ptr(testNow.Add(10 * 24 * time.Hour))
	past := ptr(testNow.Add(-24 * time.Hour))

	tests := []struct {
		name  string
		admin AdminRecord
		want  ToggleAction
	}{
		{"active within expiry pauses", AdminRecord{Status: auth.StatusActive, ExpiresAt: future}, TogglePause},
		{"active without expiry pauses", AdminRecord{Status: auth.StatusActive}, TogglePause},
		{"active but expired extends", AdminRecord{Status: auth.StatusActive, ExpiresAt: past}, ToggleExtend},
		{"paused with expiry extends", AdminRecord{Status: auth.StatusPaused, ExpiresAt: future}, ToggleExtend},
		{"paused without expiry activates", AdminRecord{Status: auth.StatusPaused}, ToggleActivate},
		{"inactive within expiry activates", AdminRecord{Status: auth.StatusInactive, ExpiresAt: future}, ToggleActivate},
		{"inactive and expired extends", AdminRecord{Status: auth.StatusInactive, ExpiresAt: past}, ToggleExtend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveToggleAction(tt.admin, testNow))
		})
	}
}

func TestTogglePatch(t *testing.T) {
	pause := TogglePatch(TogglePause, testNow)
	assert.Equal(t, auth.StatusInactive, *pause.Status)
	assert.Nil(t, pause.ExpiresAt)

	activate := TogglePatch(ToggleActivate, testNow)
	assert.Equal(t, auth.StatusActive, *activate.Status)

	extend := TogglePatch(ToggleExtend, testNow)
	assert.Equal(t, auth.StatusActive, *extend.Status)
	require.NotNil(t, extend.ExpiresAt)
	assert.Equal(t, testNow.Add(30*24*time.Hour), *extend.ExpiresAt)
}

func TestParseToggleAction(t *testing.T) {
	a, ok := ParseToggleAction(" Extend ")
	assert.True(t, ok)
	assert.Equal(t, ToggleExtend, a)

	_, ok = ParseToggleAction("delete")
	assert.False(t, ok)
}

func TestStructValidator_RegistersUsernameRule(t *testing.T) {
	var v1, v2 any
	require.NotPanics(t, func() {
		v1 = structValidator()
		v2 = structValidator()
	})
	assert.Same(t, v1, v2)
	assert.Error(t, structValidator().Var("jane doe", "username"))
	assert.NoError(t, structValidator().Var("jane.doe", "username"))
}
