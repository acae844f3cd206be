package backend

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
)

const dateLayout = "2006-01-02"

// flexTime accepts RFC 3339 timestamps and bare dates.
type flexTime struct{ time.Time }

func (t *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, dateLayout} {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v.UTC()
			return nil
		}
	}
	v, err := time.Parse(time.RFC3339, s)
	t.Time = v
	return err
}

func (t *flexTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

type adminDTO struct {
	ID             string    `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	ExpirationDate *flexTime `json:"expirationDate"`
	CreatedAt      flexTime  `json:"createdAt"`
}

type createAdminRequest struct {
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Password       string     `json:"password"`
	Role           string     `json:"role"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
}

// updateAdminRequest sends null for expirationDate when the expiry is cleared.
// Passwords never travel here; they go through the change-password endpoint.
type updateAdminRequest struct {
	Username       *string         `json:"username,omitempty"`
	Email          *string         `json:"email,omitempty"`
	Role           *string         `json:"role,omitempty"`
	Status         *string         `json:"status,omitempty"`
	ExpirationDate json.RawMessage `json:"expirationDate,omitempty"`
}

type profileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type changePasswordRequest struct {
	AdminID         string `json:"adminId,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword"`
}

type userDTO struct {
	ID          string   `json:"_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Surname     string   `json:"surname"`
	DateOfBirth flexTime `json:"dateOfBirth"`
	Postcode    string   `json:"postcode"`
	CreatedAt   flexTime `json:"createdAt"`
}

type createUserRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	DateOfBirth string `json:"dateOfBirth"`
	Postcode    string `json:"postcode"`
}

// policyUserRef is either a bare user id or a populated user object.
type policyUserRef struct {
	ID      string
	Name    string
	Surname string
}

func (r *policyUserRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	var obj struct {
		ID      string `json:"_id"`
		Name    string `json:"name"`
		Surname string `json:"surname"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.ID, r.Name, r.Surname = obj.ID, obj.Name, obj.Surname
	return nil
}

type policyDTO struct {
	ID                string        `json:"_id"`
	PolicyNumber      string        `json:"policyNumber"`
	User              policyUserRef `json:"user"`
	Vehicle           string        `json:"vehicle"`
	Registration      string        `json:"registration"`
	CoverStart        flexTime      `json:"coverStart"`
	CoverEnd          flexTime      `json:"coverEnd"`
	Status            string        `json:"status"`
	PolicyHolder      string        `json:"policyHolder"`
	AdditionalDriver  string        `json:"additionalDriver"`
	InsuranceType     string        `json:"insuranceType"`
	InsurerName       string        `json:"insurerName"`
	InsurerClaimsLine string        `json:"insurerClaimsLine"`
	CreatedAt         flexTime      `json:"createdAt"`
}

// policyDetailDTO is the {policy, documents} envelope of GET /policies/:id.
type policyDetailDTO struct {
	Policy    *policyDTO    `json:"policy"`
	Documents []documentDTO `json:"documents"`
}

type createPolicyRequest struct {
	PolicyNumber      string `json:"policyNumber,omitempty"`
	User              string `json:"user"`
	Vehicle           string `json:"vehicle,omitempty"`
	Registration      string `json:"registration,omitempty"`
	CoverStart        string `json:"coverStart"`
	CoverEnd          string `json:"coverEnd"`
	Status            string `json:"status"`
	PolicyHolder      string `json:"policyHolder"`
	AdditionalDriver  string `json:"additionalDriver,omitempty"`
	InsuranceType     string `json:"insuranceType"`
	InsurerName       string `json:"insurerName"`
	InsurerClaimsLine string `json:"insurerClaimsLine,omitempty"`
}

type documentDTO struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	PolicyID  string   `json:"policyId"`
	Issued    flexTime `json:"issued"`
	Status    string   `json:"status"`
	CreatedAt flexTime `json:"createdAt"`
}

type countsDTO struct {
	LiveCount    int `json:"liveCount"`
	ExpiredCount int `json:"expiredCount"`
	TotalCount   int `json:"totalCount"`
}

type statsDTO struct {
	UserCount     int `json:"userCount"`
	PolicyCount   int `json:"policyCount"`
	DocumentCount int `json:"documentCount"`
}

type downloadDTO struct {
	DownloadURL string `json:"downloadUrl"`
}

// backendRole is the role string the backend stores.
func backendRole(r domainauth.Role) string {
	if r == domainauth.RoleSuperAdmin {
		return "superadmin"
	}
	return "admin"
}

func backendStatus(s domainauth.Status) string {
	return strings.ToLower(string(s))
}

func toAdminRecord(d adminDTO) model.AdminRecord {
	role, ok := domainauth.ParseRole(d.Role)
	if !ok {
		role = domainauth.RoleAdmin
	}
	status := domainauth.ParseStatus(d.Status)
	if strings.TrimSpace(d.Status) == "" {
		status = domainauth.StatusActive
	}
	return model.AdminRecord{
		ID:        d.ID,
		Username:  d.Username,
		Email:     d.Email,
		Role:      role,
		Status:    status,
		ExpiresAt: d.ExpirationDate.ptr(),
		CreatedAt: d.CreatedAt.Time,
	}
}

func toCreateAdminRequest(in model.NewAdmin) createAdminRequest {
	return createAdminRequest{
		Username:       in.Username,
		Email:          in.Email,
		Password:       in.Password,
		Role:           backendRole(in.Role),
		ExpirationDate: in.ExpiresAt,
	}
}

func toUpdateAdminRequest(p model.AdminPatch) updateAdminRequest {
	req := updateAdminRequest{
		Username: p.Username,
		Email:    p.Email,
	}
	if p.Role != nil {
		r := backendRole(*p.Role)
		req.Role = &r
		if *p.Role == domainauth.RoleSuperAdmin {
			req.ExpirationDate = json.RawMessage("null")
		}
	}
	if p.Status != nil {
		s := backendStatus(*p.Status)
		req.Status = &s
	}
	if p.ExpiresAt != nil && req.ExpirationDate == nil {
		b, _ := json.Marshal(p.ExpiresAt.UTC())
		req.ExpirationDate = b
	}
	return req
}

func toUser(d userDTO) model.User {
	dob := ""
	if !d.DateOfBirth.IsZero() {
		dob = d.DateOfBirth.Format(dateLayout)
	}
	return model.User{
		ID:          d.ID,
		Email:       d.Email,
		Name:        d.Name,
		Surname:     d.Surname,
		DateOfBirth: dob,
		Postcode:    d.Postcode,
		CreatedAt:   d.CreatedAt.Time,
	}
}

func toPolicy(d policyDTO) model.Policy {
	return model.Policy{
		ID:                d.ID,
		PolicyNumber:      d.PolicyNumber,
		UserID:            d.User.ID,
		UserName:          strings.TrimSpace(d.User.Name + " " + d.User.Surname),
		Vehicle:           d.Vehicle,
		Registration:      d.Registration,
		CoverStart:        d.CoverStart.Time,
		CoverEnd:          d.CoverEnd.Time,
		Status:            model.PolicyStatus(d.Status),
		PolicyHolder:      d.PolicyHolder,
		AdditionalDriver:  d.AdditionalDriver,
		InsuranceType:     d.InsuranceType,
		InsurerName:       d.InsurerName,
		InsurerClaimsLine: d.InsurerClaimsLine,
		CreatedAt:         d.CreatedAt.Time,
	}
}

// toCreatePolicyRequest flattens the nested insurance and policy sections.
func toCreatePolicyRequest(in model.NewPolicy) createPolicyRequest {
	return createPolicyRequest{
		PolicyNumber:      in.Policy.PolicyNumber,
		User:              in.UserID,
		Vehicle:           in.Policy.Vehicle,
		Registration:      in.Policy.Registration,
		CoverStart:        in.Policy.CoverStart.Format(dateLayout),
		CoverEnd:          in.Policy.CoverEnd.Format(dateLayout),
		Status:            string(in.Policy.Status),
		PolicyHolder:      in.Policy.PolicyHolder,
		AdditionalDriver:  in.Policy.AdditionalDriver,
		InsuranceType:     in.Insurance.Type,
		InsurerName:       in.Insurance.InsurerName,
		InsurerClaimsLine: in.Insurance.InsurerClaimsLine,
	}
}

func toDocument(d documentDTO) model.Document {
	return model.Document{
		ID:        d.ID,
		PolicyID:  d.PolicyID,
		Name:      d.Name,
		Issued:    d.Issued.Time,
		Status:    model.DocumentStatus(d.Status),
		CreatedAt: d.CreatedAt.Time,
	}
}

func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
