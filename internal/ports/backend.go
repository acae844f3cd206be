package ports

import (
	"context"
	"io"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
)

// PasswordChangeRequest is sent to the backend change-password endpoint.
// AdminID targets another administrator; Current is required for self-service changes.
type PasswordChangeRequest struct {
	AdminID string
	Current string
	New     string
}

// AdminBackend covers the administrator management endpoints.
// Every call authenticates with the bearer token passed in.
type AdminBackend interface {
	CreateAdmin(ctx context.Context, token string, in model.NewAdmin) error
	ListAdmins(ctx context.Context, token string) ([]model.AdminRecord, error)
	UpdateAdmin(ctx context.Context, token, id string, patch model.AdminPatch) error
	DeleteAdmin(ctx context.Context, token, id string) error
	UpdateProfile(ctx context.Context, token string, patch model.ProfilePatch) (domainauth.Principal, error)
	ChangePassword(ctx context.Context, token string, req PasswordChangeRequest) error
}

// RecordsBackend covers users, policies, documents and dashboard endpoints.
type RecordsBackend interface {
	ListUsers(ctx context.Context, token string) ([]model.User, error)
	GetUser(ctx context.Context, token, id string) (model.User, error)
	CreateUser(ctx context.Context, token string, in model.NewUser) (model.User, error)
	DeleteUser(ctx context.Context, token, id string) error

	ListPolicies(ctx context.Context, token string) ([]model.Policy, error)
	GetPolicy(ctx context.Context, token, id string) (model.PolicyDetail, error)
	CreatePolicy(ctx context.Context, token string, in model.NewPolicy) (model.Policy, error)
	DeletePolicy(ctx context.Context, token, id string) error
	PolicyCounts(ctx context.Context, token string) (model.PolicyCounts, error)

	UploadDocument(ctx context.Context, token, policyID string, meta model.NewDocument, file io.Reader) error
	DocumentDownloadURL(ctx context.Context, token, documentID string) (string, error)

	DashboardStats(ctx context.Context, token string) (model.DashboardStats, error)
}

// Backend is the full REST surface the console depends on.
type Backend interface {
	AdminBackend
	RecordsBackend
}
