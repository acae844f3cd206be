package auth

import (
	"context"
	"fmt"
	"io"
	"sync"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
	"github.com/brokerdesk/admin-console/internal/ports"
)

var _ ports.Backend = (*FakeBackend)(nil)

// BackendCall is one recorded backend invocation.
type BackendCall struct {
	Op    string
	Token string
	ID    string
	Arg   any
}

// FakeBackend is an in-memory REST backend. Errs injects a failure per op name
// (the same names the real client reports to metrics, e.g. "list_users").
type FakeBackend struct {
	mu sync.Mutex

	Admins    []model.AdminRecord
	Users     []model.User
	Policies  []model.Policy
	Documents map[string][]model.Document // keyed by policy ID
	Stats     model.DashboardStats
	Counts    model.PolicyCounts
	Profile   domainauth.Principal
	Downloads map[string]string // document ID to URL

	Errs  map[string]error
	calls []BackendCall
	seq   int
}

// NewFakeBackend returns an empty backend ready for use.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Documents: make(map[string][]model.Document),
		Downloads: make(map[string]string),
		Errs:      make(map[string]error),
	}
}

// Fail makes op return err until cleared with a nil err.
func (f *FakeBackend) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Errs == nil {
		f.Errs = make(map[string]error)
	}
	if err == nil {
		delete(f.Errs, op)
		return
	}
	f.Errs[op] = err
}

// Calls returns a copy of the recorded calls.
func (f *FakeBackend) Calls() []BackendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]BackendCall(nil), f.calls...)
}

// CallCount reports how many times op was invoked.
func (f *FakeBackend) CallCount(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// LastCall returns the most recent call to op.
func (f *FakeBackend) LastCall(op string) (BackendCall, bool) {
	calls := f.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Op == op {
			return calls[i], true
		}
	}
	return BackendCall{}, false
}

// record must be called with f.mu held.
func (f *FakeBackend) record(op, token, id string, arg any) error {
	f.calls = append(f.calls, BackendCall{Op: op, Token: token, ID: id, Arg: arg})
	return f.Errs[op]
}

func (f *FakeBackend) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *FakeBackend) CreateAdmin(_ context.Context, token string, in model.NewAdmin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create_admin", token, "", in); err != nil {
		return err
	}
	f.Admins = append(f.Admins, model.AdminRecord{
		ID:        f.nextID("admin"),
		Username:  in.Username,
		Email:     in.Email,
		Role:      in.Role,
		Status:    domainauth.StatusActive,
		ExpiresAt: in.ExpiresAt,
	})
	return nil
}

func (f *FakeBackend) ListAdmins(_ context.Context, token string) ([]model.AdminRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list_admins", token, "", nil); err != nil {
		return nil, err
	}
	return append([]model.AdminRecord(nil), f.Admins...), nil
}

func (f *FakeBackend) UpdateAdmin(_ context.Context, token, id string, patch model.AdminPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update_admin", token, id, patch); err != nil {
		return err
	}
	for i := range f.Admins {
		if f.Admins[i].ID != id {
			continue
		}
		a := &f.Admins[i]
		if patch.Username != nil {
			a.Username = *patch.Username
		}
		if patch.Email != nil {
			a.Email = *patch.Email
		}
		if patch.Role != nil {
			a.Role = *patch.Role
			if a.Role == domainauth.RoleSuperAdmin {
				a.ExpiresAt = nil
			}
		}
		if patch.Status != nil {
			a.Status = *patch.Status
		}
		if patch.ExpiresAt != nil && a.Role != domainauth.RoleSuperAdmin {
			exp := *patch.ExpiresAt
			a.ExpiresAt = &exp
		}
		return nil
	}
	return apperrors.NotFound("Admin not found")
}

func (f *FakeBackend) DeleteAdmin(_ context.Context, token, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete_admin", token, id, nil); err != nil {
		return err
	}
	for i := range f.Admins {
		if f.Admins[i].ID == id {
			f.Admins = append(f.Admins[:i], f.Admins[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("Admin not found")
}

func (f *FakeBackend) UpdateProfile(_ context.Context, token string, patch model.ProfilePatch) (domainauth.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update_profile", token, "", patch); err != nil {
		return domainauth.Principal{}, err
	}
	f.Profile.Name = patch.Username
	if patch.Email != "" {
		f.Profile.Email = patch.Email
	}
	return f.Profile, nil
}

func (f *FakeBackend) ChangePassword(_ context.Context, token string, req ports.PasswordChangeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("change_password", token, req.AdminID, req)
}

func (f *FakeBackend) ListUsers(_ context.Context, token string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list_users", token, "", nil); err != nil {
		return nil, err
	}
	return append([]model.User(nil), f.Users...), nil
}

func (f *FakeBackend) GetUser(_ context.Context, token, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_user", token, id, nil); err != nil {
		return model.User{}, err
	}
	for _, u := range f.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, apperrors.NotFound("User not found")
}

func (f *FakeBackend) CreateUser(_ context.Context, token string, in model.NewUser) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create_user", token, "", in); err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:          f.nextID("user"),
		Email:       in.Email,
		Name:        in.Name,
		Surname:     in.Surname,
		DateOfBirth: in.DateOfBirth,
		Postcode:    in.Postcode,
	}
	f.Users = append(f.Users, u)
	return u, nil
}

func (f *FakeBackend) DeleteUser(_ context.Context, token, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete_user", token, id, nil); err != nil {
		return err
	}
	for i := range f.Users {
		if f.Users[i].ID == id {
			f.Users = append(f.Users[:i], f.Users[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("User not found")
}

func (f *FakeBackend) ListPolicies(_ context.Context, token string) ([]model.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list_policies", token, "", nil); err != nil {
		return nil, err
	}
	return append([]model.Policy(nil), f.Policies...), nil
}

func (f *FakeBackend) GetPolicy(_ context.Context, token, id string) (model.PolicyDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_policy", token, id, nil); err != nil {
		return model.PolicyDetail{}, err
	}
	for _, p := range f.Policies {
		if p.ID == id {
			return model.PolicyDetail{Policy: p, Documents: append([]model.Document(nil), f.Documents[id]...)}, nil
		}
	}
	return model.PolicyDetail{}, apperrors.NotFound("Policy not found")
}

func (f *FakeBackend) CreatePolicy(_ context.Context, token string, in model.NewPolicy) (model.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create_policy", token, "", in); err != nil {
		return model.Policy{}, err
	}
	p := model.Policy{
		ID:                f.nextID("policy"),
		PolicyNumber:      in.Policy.PolicyNumber,
		UserID:            in.UserID,
		Vehicle:           in.Policy.Vehicle,
		Registration:      in.Policy.Registration,
		CoverStart:        in.Policy.CoverStart,
		CoverEnd:          in.Policy.CoverEnd,
		Status:            in.Policy.Status,
		PolicyHolder:      in.Policy.PolicyHolder,
		AdditionalDriver:  in.Policy.AdditionalDriver,
		InsuranceType:     in.Insurance.Type,
		InsurerName:       in.Insurance.InsurerName,
		InsurerClaimsLine: in.Insurance.InsurerClaimsLine,
	}
	f.Policies = append(f.Policies, p)
	return p, nil
}

func (f *FakeBackend) DeletePolicy(_ context.Context, token, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete_policy", token, id, nil); err != nil {
		return err
	}
	for i := range f.Policies {
		if f.Policies[i].ID == id {
			f.Policies = append(f.Policies[:i], f.Policies[i+1:]...)
			delete(f.Documents, id)
			return nil
		}
	}
	return apperrors.NotFound("Policy not found")
}

func (f *FakeBackend) PolicyCounts(_ context.Context, token string) (model.PolicyCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("policy_counts", token, "", nil); err != nil {
		return model.PolicyCounts{}, err
	}
	return f.Counts, nil
}

func (f *FakeBackend) UploadDocument(
	_ context.Context,
	token, policyID string,
	meta model.NewDocument,
	file io.Reader,
) error {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("upload_document", token, policyID, meta); err != nil {
		return err
	}
	f.Documents[policyID] = append(f.Documents[policyID], model.Document{
		ID:       f.nextID("doc"),
		PolicyID: policyID,
		Name:     meta.Name,
		Issued:   meta.Issued,
		Status:   meta.Status,
	})
	return nil
}

func (f *FakeBackend) DocumentDownloadURL(_ context.Context, token, documentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("document_download", token, documentID, nil); err != nil {
		return "", err
	}
	u, ok := f.Downloads[documentID]
	if !ok {
		return "", apperrors.NotFound("Document is not available for download")
	}
	return u, nil
}

func (f *FakeBackend) DashboardStats(_ context.Context, token string) (model.DashboardStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("dashboard_stats", token, "", nil); err != nil {
		return model.DashboardStats{}, err
	}
	return f.Stats, nil
}
