package model

import (
	"strings"
	"time"
)

// PolicyStatus is the lifecycle state of a policy.
type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "Active"
	PolicyExpired   PolicyStatus = "Expired"
	PolicyPending   PolicyStatus = "Pending"
	PolicyCancelled PolicyStatus = "Cancelled"
)

// PolicyStatuses lists every status in display order.
func PolicyStatuses() []PolicyStatus {
	return []PolicyStatus{PolicyActive, PolicyPending, PolicyExpired, PolicyCancelled}
}

// Policy is an insurance policy as returned by the backend.
type Policy struct {
	ID                string
	PolicyNumber      string
	UserID            string
	UserName          string
	Vehicle           string
	Registration      string
	CoverStart        time.Time
	CoverEnd          time.Time
	Status            PolicyStatus
	PolicyHolder      string
	AdditionalDriver  string
	InsuranceType     string
	InsurerName       string
	InsurerClaimsLine string
	CreatedAt         time.Time
}

// ExpiringSoon reports whether cover ends within days.
func (p Policy) ExpiringSoon(now time.Time, days int) bool {
	end := p.CoverEnd
	return !end.IsZero() && IsExpiringSoon(&end, now, days)
}

// PolicyDetail is a policy together with its documents.
type PolicyDetail struct {
	Policy    Policy
	Documents []Document
}

// PolicyCounts summarises policies by state.
type PolicyCounts struct {
	Live    int
	Expired int
	Total   int
}

// InsuranceInput is the insurance half of the create-policy form.
type InsuranceInput struct {
	Type              string `form:"insuranceType"     validate:"required,max=64"`
	InsurerName       string `form:"insurerName"       validate:"required,max=128"`
	InsurerClaimsLine string `form:"insurerClaimsLine" validate:"omitempty,max=32"`
}

// PolicyInput is the policy half of the create-policy form.
type PolicyInput struct {
	PolicyNumber     string       `form:"policyNumber"     validate:"omitempty,max=64"`
	Vehicle          string       `form:"vehicle"          validate:"omitempty,max=128"`
	Registration     string       `form:"registration"     validate:"omitempty,max=16"`
	PolicyHolder     string       `form:"policyHolder"     validate:"required,max=128"`
	AdditionalDriver string       `form:"additionalDriver" validate:"omitempty,max=128"`
	CoverStart       time.Time    `form:"coverStart"`
	CoverEnd         time.Time    `form:"coverEnd"`
	Status           PolicyStatus `form:"status"`
}

// NewPolicy is the nested create-policy request assembled by the form.
type NewPolicy struct {
	UserID    string         `form:"userId" validate:"required"`
	Insurance InsuranceInput `form:"insurance"`
	Policy    PolicyInput    `form:"policy"`
}

// Validate normalises and checks the request. Status defaults to Active.
func (n *NewPolicy) Validate() error {
	n.UserID = strings.TrimSpace(n.UserID)
	n.Insurance.Type = strings.TrimSpace(n.Insurance.Type)
	n.Insurance.InsurerName = strings.TrimSpace(n.Insurance.InsurerName)
	n.Insurance.InsurerClaimsLine = strings.TrimSpace(n.Insurance.InsurerClaimsLine)
	n.Policy.PolicyHolder = strings.TrimSpace(n.Policy.PolicyHolder)
	n.Policy.Registration = strings.ToUpper(strings.TrimSpace(n.Policy.Registration))
	if n.Policy.Status == "" {
		n.Policy.Status = PolicyActive
	}

	ve := &ValidationError{}
	checkStruct(ve, n)
	switch {
	case n.Policy.CoverStart.IsZero():
		ve.add("coverStart", "Cover start date is required")
	case n.Policy.CoverEnd.IsZero():
		ve.add("coverEnd", "Cover end date is required")
	case !n.Policy.CoverEnd.After(n.Policy.CoverStart):
		ve.add("coverEnd", "Cover end date must be after the start date")
	}
	if !validPolicyStatus(n.Policy.Status) {
		ve.add("status", "Status is invalid")
	}
	return ve.orNil()
}

func validPolicyStatus(s PolicyStatus) bool {
	for _, v := range PolicyStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// FilterPolicies keeps policies matching q (number, holder, vehicle, registration, insurer)
// and status ("" or "all" matches every status).
func FilterPolicies(policies []Policy, q, status string) []Policy {
	q = strings.ToLower(strings.TrimSpace(q))
	status = strings.TrimSpace(status)
	out := make([]Policy, 0, len(policies))
	for _, p := range policies {
		if status != "" && status != "all" && !strings.EqualFold(string(p.Status), status) {
			continue
		}
		if q != "" && !policyMatches(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func policyMatches(p Policy, q string) bool {
	for _, f := range []string{p.PolicyNumber, p.PolicyHolder, p.Vehicle, p.Registration, p.InsurerName} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
