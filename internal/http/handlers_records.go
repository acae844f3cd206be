package httpx

import (
	"net/http"
	"strings"

	"github.com/brokerdesk/admin-console/internal/domain/access"
	"github.com/brokerdesk/admin-console/internal/domain/model"
)

type dashboardContent struct {
	Dashboard model.Dashboard
	Loaded    bool
}

// Dashboard serves GET /.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Records.Dashboard(r.Context(), ViewFromContext(r.Context()))
	if err != nil && h.loadFailed(w, r, err, "Failed to load dashboard") {
		return
	}
	h.render(w, r, page{
		Meta:    PageMeta{Title: "Dashboard", Page: PageDashboard},
		Content: dashboardContent{Dashboard: d, Loaded: err == nil},
	})
}

type usersContent struct {
	Users []model.User
	Query string
}

// Users serves GET /users?q=.
func (h *Handlers) Users(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	users, err := h.Records.Users(r.Context(), ViewFromContext(r.Context()), q)
	if err != nil && h.loadFailed(w, r, err, "Failed to load users") {
		return
	}
	h.render(w, r, page{
		Meta:    PageMeta{Title: "Users", Page: PageUsers},
		Content: usersContent{Users: users, Query: q},
	})
}

type userContent struct {
	User     model.User
	Policies []model.Policy
	Found    bool
}

// User serves GET /users/{id}.
func (h *Handlers) User(w http.ResponseWriter, r *http.Request) {
	user, policies, err := h.Records.UserDetail(r.Context(), ViewFromContext(r.Context()), r.PathValue("id"))
	if err != nil && h.loadFailed(w, r, err, "Failed to load user") {
		return
	}
	h.render(w, r, page{
		Meta:    PageMeta{Title: "User", Page: PageUser},
		Content: userContent{User: user, Policies: policies, Found: err == nil},
		Status:  readFailedStatus(err),
	})
}

// CreateUser serves POST /users.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	in := model.NewUser{
		Email:       r.FormValue("email"),
		Name:        r.FormValue("name"),
		Surname:     r.FormValue("surname"),
		DateOfBirth: strings.TrimSpace(r.FormValue("dateOfBirth")),
		Postcode:    r.FormValue("postcode"),
	}
	user, ok := h.Records.CreateUser(r.Context(), ViewFromContext(r.Context()), in)
	if ok && user.ID != "" {
		h.finish(w, r, access.PathUsers+"/"+user.ID)
		return
	}
	h.finish(w, r, access.PathUsers)
}

// DeleteUser serves POST /users/{id}/delete.
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.Records.DeleteUser(r.Context(), ViewFromContext(r.Context()), id) {
		h.finish(w, r, access.PathUsers)
		return
	}
	h.finish(w, r, access.PathUsers+"/"+id)
}

type policiesContent struct {
	Policies []model.Policy
	Users    []model.User
	Query    string
	Status   string
	// SelectedUser preselects the owner in the create form (from ?user=).
	SelectedUser string
}

// Policies serves GET /policies?q=&status=.
func (h *Handlers) Policies(w http.ResponseWriter, r *http.Request) {
	ctx, view := r.Context(), ViewFromContext(r.Context())
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	policies, err := h.Records.Policies(ctx, view, q, status)
	if err != nil && h.loadFailed(w, r, err, "Failed to load policies") {
		return
	}
	var users []model.User
	if err == nil {
		users, err = h.Records.Users(ctx, view, "")
		if err != nil && h.loadFailed(w, r, err, "Failed to load users") {
			return
		}
	}
	h.render(w, r, page{
		Meta: PageMeta{Title: "Policies", Page: PagePolicies},
		Content: policiesContent{
			Policies:     policies,
			Users:        users,
			Query:        q,
			Status:       status,
			SelectedUser: r.URL.Query().Get("user"),
		},
	})
}

type policyContent struct {
	Detail model.PolicyDetail
	Found  bool
}

// Policy serves GET /policies/{id}.
func (h *Handlers) Policy(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Records.Policy(r.Context(), ViewFromContext(r.Context()), r.PathValue("id"))
	if err != nil && h.loadFailed(w, r, err, "Failed to load policy") {
		return
	}
	h.render(w, r, page{
		Meta:    PageMeta{Title: "Policy", Page: PagePolicy},
		Content: policyContent{Detail: detail, Found: err == nil},
		Status:  readFailedStatus(err),
	})
}

// CreatePolicy serves POST /policies. The form posts the insurance and policy
// halves as flat fields.
func (h *Handlers) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	in := model.NewPolicy{
		UserID: r.FormValue("userId"),
		Insurance: model.InsuranceInput{
			Type:              r.FormValue("insuranceType"),
			InsurerName:       r.FormValue("insurerName"),
			InsurerClaimsLine: r.FormValue("insurerClaimsLine"),
		},
		Policy: model.PolicyInput{
			PolicyNumber:     strings.TrimSpace(r.FormValue("policyNumber")),
			Vehicle:          strings.TrimSpace(r.FormValue("vehicle")),
			Registration:     r.FormValue("registration"),
			PolicyHolder:     r.FormValue("policyHolder"),
			AdditionalDriver: strings.TrimSpace(r.FormValue("additionalDriver")),
			CoverStart:       formDate(r, "coverStart"),
			CoverEnd:         formDate(r, "coverEnd"),
			Status:           model.PolicyStatus(strings.TrimSpace(r.FormValue("status"))),
		},
	}
	policy, ok := h.Gateway.CreatePolicy(r.Context(), ViewFromContext(r.Context()), in)
	if ok && policy.ID != "" {
		h.finish(w, r, access.PathPolicies+"/"+policy.ID)
		return
	}
	h.finish(w, r, access.PathPolicies)
}

// DeletePolicy serves POST /policies/{id}/delete.
func (h *Handlers) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.Records.DeletePolicy(r.Context(), ViewFromContext(r.Context()), id) {
		h.finish(w, r, access.PathPolicies)
		return
	}
	h.finish(w, r, access.PathPolicies+"/"+id)
}

type documentsContent struct {
	Documents []model.PolicyDocument
	Query     string
	Status    string
}

// Documents serves GET /documents?q=&status=.
func (h *Handlers) Documents(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	docs, err := h.Records.Documents(r.Context(), ViewFromContext(r.Context()), q, status)
	if err != nil && h.loadFailed(w, r, err, "Failed to load documents") {
		return
	}
	h.render(w, r, page{
		Meta:    PageMeta{Title: "Documents", Page: PageDocuments},
		Content: documentsContent{Documents: docs, Query: q, Status: status},
	})
}
