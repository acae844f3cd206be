package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
)

func newRecords(t *testing.T) (*gatewayFixture, *RecordsService) {
	t.Helper()
	f := newGatewayFixture(t)
	return f, NewRecordsService(RecordsServiceOptions{Gateway: f.gw, Backend: f.backend})
}

func TestDashboard(t *testing.T) {
	f, rs := newRecords(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)
	f.backend.Stats = model.DashboardStats{Users: 2, Policies: 3, Documents: 4}
	f.backend.Counts = model.PolicyCounts{Live: 2, Expired: 1, Total: 3}
	f.backend.Policies = []model.Policy{
		{ID: "far", CoverEnd: f.now.Add(90 * 24 * time.Hour)},
		{ID: "soon2", CoverEnd: f.now.Add(5 * 24 * time.Hour)},
		{ID: "soon1", CoverEnd: f.now.Add(2 * 24 * time.Hour)},
		{ID: "gone", CoverEnd: f.now.Add(-24 * time.Hour)},
	}

	dash, err := rs.Dashboard(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, f.backend.Stats, dash.Stats)
	assert.Equal(t, f.backend.Counts, dash.Counts)
	require.Len(t, dash.ExpiringSoon, 2)
	assert.Equal(t, "soon1", dash.ExpiringSoon[0].ID)
	assert.Equal(t, "soon2", dash.ExpiringSoon[1].ID)
}

func TestDashboard_UnauthorizedLogsOut(t *testing.T) {
	f, rs := newRecords(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)
	f.backend.Fail("policy_counts", apperrors.SessionExpired(errors.New("403")))

	_, err := rs.Dashboard(context.Background(), view)
	require.Error(t, err)
	assert.True(t, apperrors.IsSessionExpired(err))
	assert.False(t, view.IsAuthenticated())
	assert.Equal(t, 0, f.sessions.Len())
}

func TestUsers_Filter(t *testing.T) {
	f, rs := newRecords(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)
	f.backend.Users = []model.User{
		{ID: "1", Name: "Jo", Surname: "Bloggs", Email: "jo@x.io"},
		{ID: "2", Name: "Sam", Surname: "Smith", Email: "sam@x.io"},
	}

	users, err := rs.Users(context.Background(), view, "blog")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "1", users[0].ID)
}

func TestUserDetail(t *testing.T) {
	f, rs := newRecords(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)
	f.backend.Users = []model.User{{ID: "u1", Name: "Jo"}}
	f.backend.Policies = []model.Policy{{ID: "p1", UserID: "u1"}, {ID: "p2", UserID: "u2"}}

	user, policies, err := rs.UserDetail(context.Background(), view, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jo", user.Name)
	require.Len(t, policies, 1)
	assert.Equal(t, "p1", policies[0].ID)

	_, _, err = rs.UserDetail(context.Background(), view, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateUser(t *testing.T) {
	f, rs := newRecords(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)

	_, ok := rs.CreateUser(context.Background(), view, model.NewUser{Email: "bad"})
	assert.False(t, ok)
	assert.Equal(t, 0, f.backend.CallCount("create_user"))

	u, ok := rs.CreateUser(context.Background(), view, model.NewUser{
		Email: "jo@x.io", Name: "Jo", Surname: "Bloggs", DateOfBirth: "1990-04-01", Postcode: "sw1a 1aa",
	})
	require.True(t, ok)
	assert.Equal(t, "SW1A 1AA", u.Postcode)
	assert.Contains(t, f.notifier.Successes(), "User created successfully")
}

func TestDocuments_FansOutAcrossPolicies(t *testing.T) {
	f, rs := newRecords(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)
	f.backend.Policies = []model.Policy{
		{ID: "p1", PolicyNumber: "POL-1"},
		{ID: "p2", PolicyNumber: "POL-2"},
	}
	f.backend.Documents["p1"] = []model.Document{{ID: "d1", Name: "Schedule", Issued: f.now.Add(-48 * time.Hour), Status: model.DocumentNew}}
	f.backend.Documents["p2"] = []model.Document{{ID: "d2", Name: "Certificate", Issued: f.now, Status: model.DocumentViewed}}

	docs, err := rs.Documents(context.Background(), view, "", "")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d2", docs[0].ID, "newest first")
	assert.Equal(t, "POL-2", docs[0].PolicyNumber)
	assert.Equal(t, 3, f.backend.CallCount("list_policies")+f.backend.CallCount("get_policy"))
}

func TestUploadDocument(t *testing.T) {
	f, rs := newRecords(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)
	f.backend.Policies = []model.Policy{{ID: "p1"}}

	ok := rs.UploadDocument(context.Background(), view, "p1", model.NewDocument{Name: "Cert"}, strings.NewReader("x"))
	assert.False(t, ok, "issued date and file are required")
	assert.Equal(t, 0, f.backend.CallCount("upload_document"))

	ok = rs.UploadDocument(context.Background(), view, "p1", model.NewDocument{
		Name: "Cert", Issued: f.now, FileName: "cert.pdf", Size: 3,
	}, strings.NewReader("pdf"))
	require.True(t, ok)
	assert.Len(t, f.backend.Documents["p1"], 1)
}

func TestDownloadURL(t *testing.T) {
	f, rs := newRecords(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)
	f.backend.Downloads["d1"] = "https://files.example/d1"

	u, ok := rs.DownloadURL(context.Background(), view, "d1")
	require.True(t, ok)
	assert.Equal(t, "https://files.example/d1", u)

	_, ok = rs.DownloadURL(context.Background(), view, "nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"Document is not available for download"}, f.notifier.Errors())
}

func TestDeleteUserAndPolicy(t *testing.T) {
	f, rs := newRecords(t)
	view := f.loggedIn(t, "s1", domainauth.RoleAdmin)
	f.backend.Users = []model.User{{ID: "u1"}}
	f.backend.Policies = []model.Policy{{ID: "p1"}}

	assert.True(t, rs.DeleteUser(context.Background(), view, "u1"))
	assert.True(t, rs.DeletePolicy(context.Background(), view, "p1"))
	assert.False(t, rs.DeletePolicy(context.Background(), view, "p1"))
	assert.Empty(t, f.backend.Users)
	assert.Empty(t, f.backend.Policies)
}
