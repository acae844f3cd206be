package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/brokerdesk/admin-console/internal/domain/model"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
)

// ListUsers calls GET /users.
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.User, error) {
	var out []userDTO
	if err := c.do(ctx, call{op: "list_users", method: http.MethodGet, path: "/users", token: token, out: &out}); err != nil {
		return nil, err
	}
	return mapSlice(out, toUser), nil
}

// GetUser calls GET /users/:id.
func (c *Client) GetUser(ctx context.Context, token, id string) (model.User, error) {
	var out userDTO
	if err := c.do(ctx, call{op: "get_user", method: http.MethodGet, path: "/users/" + escape(id), token: token, out: &out}); err != nil {
		return model.User{}, err
	}
	return toUser(out), nil
}

// CreateUser calls POST /users.
func (c *Client) CreateUser(ctx context.Context, token string, in model.NewUser) (model.User, error) {
	var out userDTO
	err := c.do(ctx, call{
		op:     "create_user",
		method: http.MethodPost,
		path:   "/users",
		token:  token,
		body: createUserRequest{
			Email:       in.Email,
			Name:        in.Name,
			Surname:     in.Surname,
			DateOfBirth: in.DateOfBirth,
			Postcode:    in.Postcode,
		},
		out: &out,
	})
	if err != nil {
		return model.User{}, err
	}
	return toUser(out), nil
}

// DeleteUser calls DELETE /users/:id.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.do(ctx, call{op: "delete_user", method: http.MethodDelete, path: "/users/" + escape(id), token: token})
}

// ListPolicies calls GET /policies.
func (c *Client) ListPolicies(ctx context.Context, token string) ([]model.Policy, error) {
	var out []policyDTO
	if err := c.do(ctx, call{op: "list_policies", method: http.MethodGet, path: "/policies", token: token, out: &out}); err != nil {
		return nil, err
	}
	return mapSlice(out, toPolicy), nil
}

// GetPolicy calls GET /policies/:id. The backend answers either with a
// {policy, documents} envelope or with the bare policy; in the latter case
// documents are fetched from GET /policies/:id/documents.
func (c *Client) GetPolicy(ctx context.Context, token, id string) (model.PolicyDetail, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "get_policy", method: http.MethodGet, path: "/policies/" + escape(id), token: token, out: &raw}); err != nil {
		return model.PolicyDetail{}, err
	}

	var env policyDetailDTO
	if err := json.Unmarshal(raw, &env); err == nil && env.Policy != nil {
		return model.PolicyDetail{
			Policy:    toPolicy(*env.Policy),
			Documents: mapSlice(env.Documents, toDocument),
		}, nil
	}

	var bare policyDTO
	if err := json.Unmarshal(raw, &bare); err != nil {
		return model.PolicyDetail{}, apperrors.Wrap(err, apperrors.ErrCodeBackend, "get_policy: decode response")
	}
	docs, err := c.policyDocuments(ctx, token, id)
	if err != nil {
		return model.PolicyDetail{}, err
	}
	return model.PolicyDetail{Policy: toPolicy(bare), Documents: docs}, nil
}

func (c *Client) policyDocuments(ctx context.Context, token, policyID string) ([]model.Document, error) {
	var out []documentDTO
	if err := c.do(ctx, call{
		op:     "list_policy_documents",
		method: http.MethodGet,
		path:   "/policies/" + escape(policyID) + "/documents",
		token:  token,
		out:    &out,
	}); err != nil {
		return nil, err
	}
	return mapSlice(out, toDocument), nil
}

// CreatePolicy calls POST /policies with the flattened policy payload.
func (c *Client) CreatePolicy(ctx context.Context, token string, in model.NewPolicy) (model.Policy, error) {
	var out policyDTO
	if err := c.do(ctx, call{
		op:     "create_policy",
		method: http.MethodPost,
		path:   "/policies",
		token:  token,
		body:   toCreatePolicyRequest(in),
		out:    &out,
	}); err != nil {
		return model.Policy{}, err
	}
	return toPolicy(out), nil
}

// DeletePolicy calls DELETE /policies/:id.
func (c *Client) DeletePolicy(ctx context.Context, token, id string) error {
	return c.do(ctx, call{op: "delete_policy", method: http.MethodDelete, path: "/policies/" + escape(id), token: token})
}

// PolicyCounts calls GET /policies/counts.
func (c *Client) PolicyCounts(ctx context.Context, token string) (model.PolicyCounts, error) {
	var out countsDTO
	if err := c.do(ctx, call{op: "policy_counts", method: http.MethodGet, path: "/policies/counts", token: token, out: &out}); err != nil {
		return model.PolicyCounts{}, err
	}
	return model.PolicyCounts{Live: out.LiveCount, Expired: out.ExpiredCount, Total: out.TotalCount}, nil
}

// UploadDocument posts a multipart form to POST /policies/:id/documents.
// The file travels in the "document" field next to name, issued and status.
func (c *Client) UploadDocument(
	ctx context.Context,
	token, policyID string,
	meta model.NewDocument,
	file io.Reader,
) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"name", meta.Name},
		{"issued", meta.Issued.Format(dateLayout)},
		{"status", string(meta.Status)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "upload_document: write field")
		}
	}
	part, err := mw.CreateFormFile("document", filepath.Base(meta.FileName))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "upload_document: create part")
	}
	if _, err := io.Copy(part, io.LimitReader(file, model.MaxDocumentSize+1)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "upload_document: copy file")
	}
	if err := mw.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "upload_document: close form")
	}

	return c.do(ctx, call{
		op:          "upload_document",
		method:      http.MethodPost,
		path:        "/policies/" + escape(policyID) + "/documents",
		token:       token,
		raw:         &buf,
		contentType: mw.FormDataContentType(),
	})
}

// DocumentDownloadURL calls GET /policies/documents/:id/download.
func (c *Client) DocumentDownloadURL(ctx context.Context, token, documentID string) (string, error) {
	var out downloadDTO
	if err := c.do(ctx, call{
		op:     "document_download",
		method: http.MethodGet,
		path:   "/policies/documents/" + escape(documentID) + "/download",
		token:  token,
		out:    &out,
	}); err != nil {
		return "", err
	}
	if out.DownloadURL == "" {
		return "", apperrors.NotFound("Document is not available for download")
	}
	return out.DownloadURL, nil
}

// DashboardStats calls GET /admin/dashboard.
func (c *Client) DashboardStats(ctx context.Context, token string) (model.DashboardStats, error) {
	var out statsDTO
	if err := c.do(ctx, call{op: "dashboard_stats", method: http.MethodGet, path: "/admin/dashboard", token: token, out: &out}); err != nil {
		return model.DashboardStats{}, err
	}
	return model.DashboardStats{Users: out.UserCount, Policies: out.PolicyCount, Documents: out.DocumentCount}, nil
}
