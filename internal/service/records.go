package service

import (
	"context"
	"io"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
	"github.com/brokerdesk/admin-console/internal/ports"
)

// documentFetchLimit caps concurrent policy lookups when listing documents.
const documentFetchLimit = 4

// RecordsServiceOptions groups dependencies for RecordsService.
type RecordsServiceOptions struct {
	Gateway *AuthGateway
	Backend ports.RecordsBackend
	// ExpiringSoonDays is the dashboard's expiry window; zero uses the default.
	ExpiringSoonDays int
}

// RecordsService reads and edits users, policies and documents. Every call is
// routed through the gateway so a rejected token ends the session the same
// way for reads as for privileged writes.
type RecordsService struct {
	gw      *AuthGateway
	backend ports.RecordsBackend
	days    int
}

// NewRecordsService constructs a RecordsService.
func NewRecordsService(opts RecordsServiceOptions) *RecordsService {
	if opts.Gateway == nil || opts.Backend == nil {
		panic("service: RecordsService requires Gateway and Backend")
	}
	days := opts.ExpiringSoonDays
	if days <= 0 {
		days = model.DefaultExpiringSoonDays
	}
	return &RecordsService{gw: opts.Gateway, backend: opts.Backend, days: days}
}

// Dashboard loads stats, policy counts and the policies expiring soon concurrently.
func (s *RecordsService) Dashboard(ctx context.Context, view *domainauth.View) (model.Dashboard, error) {
	var out model.Dashboard
	err := s.gw.Do(ctx, view, "dashboard", func(token string) error {
		g, gctx := errgroup.WithContext(ctx)
		var policies []model.Policy
		g.Go(func() error {
			var err error
			out.Stats, err = s.backend.DashboardStats(gctx, token)
			return err
		})
		g.Go(func() error {
			var err error
			out.Counts, err = s.backend.PolicyCounts(gctx, token)
			return err
		})
		g.Go(func() error {
			var err error
			policies, err = s.backend.ListPolicies(gctx, token)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		out.ExpiringSoon = expiringSoon(policies, s.gw.Now(), s.days)
		return nil
	})
	return out, err
}

// expiringSoon keeps policies whose cover ends within days, soonest first.
func expiringSoon(policies []model.Policy, now time.Time, days int) []model.Policy {
	var out []model.Policy
	for _, p := range policies {
		if p.ExpiringSoon(now, days) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CoverEnd.Before(out[j].CoverEnd) })
	return out
}

// Users lists users matching q.
func (s *RecordsService) Users(ctx context.Context, view *domainauth.View, q string) ([]model.User, error) {
	var users []model.User
	err := s.gw.Do(ctx, view, "list_users", func(token string) error {
		var err error
		users, err = s.backend.ListUsers(ctx, token)
		return err
	})
	return model.FilterUsers(users, q), err
}

// UserDetail loads one user and the policies held by them.
func (s *RecordsService) UserDetail(ctx context.Context, view *domainauth.View, id string) (model.User, []model.Policy, error) {
	var (
		user     model.User
		policies []model.Policy
	)
	err := s.gw.Do(ctx, view, "user_detail", func(token string) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			user, err = s.backend.GetUser(gctx, token, id)
			return err
		})
		g.Go(func() error {
			all, err := s.backend.ListPolicies(gctx, token)
			for _, p := range all {
				if p.UserID == id {
					policies = append(policies, p)
				}
			}
			return err
		})
		return g.Wait()
	})
	return user, policies, err
}

// CreateUser registers a customer.
func (s *RecordsService) CreateUser(ctx context.Context, view *domainauth.View, in model.NewUser) (model.User, bool) {
	var created model.User
	ok := s.gw.run(ctx, view, outcome{
		op:      "create_user",
		success: "User created successfully",
		failure: "Failed to create user",
	}, func(token string) error {
		if err := in.Validate(); err != nil {
			return err
		}
		var err error
		created, err = s.backend.CreateUser(ctx, token, in)
		return err
	})
	return created, ok
}

// DeleteUser removes a customer.
func (s *RecordsService) DeleteUser(ctx context.Context, view *domainauth.View, id string) bool {
	return s.gw.run(ctx, view, outcome{
		op:      "delete_user",
		success: "User deleted successfully",
		failure: "Failed to delete user",
	}, func(token string) error {
		return s.backend.DeleteUser(ctx, token, id)
	})
}

// Policies lists policies matching q and status.
func (s *RecordsService) Policies(ctx context.Context, view *domainauth.View, q, status string) ([]model.Policy, error) {
	var policies []model.Policy
	err := s.gw.Do(ctx, view, "list_policies", func(token string) error {
		var err error
		policies, err = s.backend.ListPolicies(ctx, token)
		return err
	})
	return model.FilterPolicies(policies, q, status), err
}

// Policy loads one policy with its documents.
func (s *RecordsService) Policy(ctx context.Context, view *domainauth.View, id string) (model.PolicyDetail, error) {
	var detail model.PolicyDetail
	err := s.gw.Do(ctx, view, "get_policy", func(token string) error {
		var err error
		detail, err = s.backend.GetPolicy(ctx, token, id)
		return err
	})
	return detail, err
}

// DeletePolicy removes a policy.
func (s *RecordsService) DeletePolicy(ctx context.Context, view *domainauth.View, id string) bool {
	return s.gw.run(ctx, view, outcome{
		op:      "delete_policy",
		success: "Policy deleted successfully",
		failure: "Failed to delete policy",
	}, func(token string) error {
		return s.backend.DeletePolicy(ctx, token, id)
	})
}

// UploadDocument attaches a document to a policy.
func (s *RecordsService) UploadDocument(
	ctx context.Context,
	view *domainauth.View,
	policyID string,
	meta model.NewDocument,
	file io.Reader,
) bool {
	return s.gw.run(ctx, view, outcome{
		op:      "upload_document",
		success: "Document uploaded successfully",
		failure: "Failed to upload document",
	}, func(token string) error {
		if err := meta.Validate(); err != nil {
			return err
		}
		return s.backend.UploadDocument(ctx, token, policyID, meta, file)
	})
}

// DownloadURL resolves a signed download link for a document.
func (s *RecordsService) DownloadURL(ctx context.Context, view *domainauth.View, documentID string) (string, bool) {
	var u string
	ok := s.gw.run(ctx, view, outcome{op: "document_download", failure: "Failed to download document"}, func(token string) error {
		var err error
		u, err = s.backend.DocumentDownloadURL(ctx, token, documentID)
		return err
	})
	return u, ok
}

// Documents lists every document across policies, newest issue date first.
// Policies are fetched with bounded concurrency.
func (s *RecordsService) Documents(ctx context.Context, view *domainauth.View, q, status string) ([]model.PolicyDocument, error) {
	var docs []model.PolicyDocument
	err := s.gw.Do(ctx, view, "list_documents", func(token string) error {
		policies, err := s.backend.ListPolicies(ctx, token)
		if err != nil {
			return err
		}

		perPolicy := make([][]model.PolicyDocument, len(policies))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(documentFetchLimit)
		for i, p := range policies {
			g.Go(func() error {
				detail, err := s.backend.GetPolicy(gctx, token, p.ID)
				if err != nil {
					return err
				}
				for _, d := range detail.Documents {
					perPolicy[i] = append(perPolicy[i], model.PolicyDocument{
						Document:     d,
						PolicyNumber: p.PolicyNumber,
						PolicyHolder: p.PolicyHolder,
					})
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, ds := range perPolicy {
			docs = append(docs, ds...)
		}
		return nil
	})
	docs = model.FilterDocuments(docs, q, status)
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Issued.After(docs[j].Issued) })
	return docs, err
}
