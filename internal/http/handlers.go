package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brokerdesk/admin-console/internal/domain/access"
	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
	"github.com/brokerdesk/admin-console/internal/service"
)

// retryAfterSeconds is how long the checking page asks clients to wait.
const retryAfterSeconds = "2"

// AuthGateway is the slice of service.AuthGateway the handlers use.
type AuthGateway interface {
	SessionRestorer
	Now() time.Time
	Login(ctx context.Context, view *domainauth.View, username, password string) (*domainauth.Session, bool)
	Logout(ctx context.Context, view *domainauth.View) bool

	ListAdmins(ctx context.Context, view *domainauth.View) ([]model.AdminRecord, bool)
	CreateAdmin(ctx context.Context, view *domainauth.View, in model.NewAdmin) bool
	UpdateAdmin(ctx context.Context, view *domainauth.View, id string, patch model.AdminPatch) bool
	ToggleAdminStatus(ctx context.Context, view *domainauth.View, id string, action model.ToggleAction) bool
	UpdateAdminPassword(ctx context.Context, view *domainauth.View, id, newPassword string) bool
	DeleteAdmin(ctx context.Context, view *domainauth.View, id string) bool
	UpdateCurrentAdmin(ctx context.Context, view *domainauth.View, patch model.ProfilePatch) bool
	ChangeOwnPassword(ctx context.Context, view *domainauth.View, change model.PasswordChange) bool
	CreatePolicy(ctx context.Context, view *domainauth.View, in model.NewPolicy) (model.Policy, bool)
}

// RecordsService is the read/CRUD surface for users, policies and documents.
type RecordsService interface {
	Dashboard(ctx context.Context, view *domainauth.View) (model.Dashboard, error)
	Users(ctx context.Context, view *domainauth.View, q string) ([]model.User, error)
	UserDetail(ctx context.Context, view *domainauth.View, id string) (model.User, []model.Policy, error)
	CreateUser(ctx context.Context, view *domainauth.View, in model.NewUser) (model.User, bool)
	DeleteUser(ctx context.Context, view *domainauth.View, id string) bool
	Policies(ctx context.Context, view *domainauth.View, q, status string) ([]model.Policy, error)
	Policy(ctx context.Context, view *domainauth.View, id string) (model.PolicyDetail, error)
	DeletePolicy(ctx context.Context, view *domainauth.View, id string) bool
	UploadDocument(ctx context.Context, view *domainauth.View, policyID string, meta model.NewDocument, file io.Reader) bool
	DownloadURL(ctx context.Context, view *domainauth.View, documentID string) (string, bool)
	Documents(ctx context.Context, view *domainauth.View, q, status string) ([]model.PolicyDocument, error)
}

var (
	_ AuthGateway    = (*service.AuthGateway)(nil)
	_ RecordsService = (*service.RecordsService)(nil)
)

// Handlers serves the browser-facing console.
type Handlers struct {
	Gateway      AuthGateway
	Records      RecordsService
	T            *TemplateRenderer
	CookieDomain string
	IsDev        bool
	Logger       *slog.Logger
}

func (h *Handlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handlers) flash() flash { return flash{cookieDomain: h.CookieDomain} }

// page describes one render.
type page struct {
	Meta    PageMeta
	Content any
	Status  int
}

// render writes p inside the layout, or only its content for htmx swaps.
// Pending notices become toasts: in the layout for full renders, in an
// Hx-Trigger header for partial ones.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, p page) {
	notices := append(h.flash().take(w, r), DrainNotices(r.Context())...)
	data := PageData{Layout: buildLayout(r, p.Meta, notices), Content: p.Content}

	var err error
	switch {
	case WantsPartial(r):
		triggerToasts(w, notices)
		err = h.T.RenderPartial(w, data, p.Status)
	case data.Layout.User == nil:
		err = h.T.RenderBare(w, data, p.Status)
	default:
		err = h.T.RenderFull(w, data, p.Status)
	}
	if err != nil {
		h.templateFailed(w, r, err)
	}
}

func (h *Handlers) templateFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().ErrorContext(r.Context(), "template rendering failed",
		slog.Any("error", err),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
	)
	if h.IsDev {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// finish ends a mutation with a redirect that carries the notices in the
// flash cookie. If the operation ended the session the visitor goes to login.
func (h *Handlers) finish(w http.ResponseWriter, r *http.Request, target string) {
	if !ViewFromContext(r.Context()).IsAuthenticated() {
		h.toLogin(w, r)
		return
	}
	h.flash().persist(w, r)
	redirectTo(w, r, target)
}

// toLogin clears the session cookie and sends the visitor to the login page.
func (h *Handlers) toLogin(w http.ResponseWriter, r *http.Request) {
	expireCookie(w, r, cookieSpec{Name: SessionCookieName, Domain: h.CookieDomain})
	h.flash().persist(w, r)
	redirectToLogin(w, r)
}

// loadFailed reports a failed read as a notice. It returns true when the
// response has been written because the session ended.
func (h *Handlers) loadFailed(w http.ResponseWriter, r *http.Request, err error, fallback string) bool {
	addNotice(r.Context(), Notice{Kind: NoticeError, Message: service.NoticeFor(err, fallback)})
	if !ViewFromContext(r.Context()).IsAuthenticated() {
		h.toLogin(w, r)
		return true
	}
	return false
}

// NotFound renders the not found page.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found"})
		return
	}
	home := access.PathLogin
	if p, ok := PrincipalFromContext(r.Context()); ok {
		home = access.HomeFor(p.Role)
	}
	h.render(w, r, page{
		Meta:    PageMeta{Title: "Page Not Found", Page: PageNotFound},
		Content: map[string]string{"Home": home},
		Status:  http.StatusNotFound,
	})
}

// Checking implements GuardPages for requests whose session could not be read.
func (h *Handlers) Checking(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", retryAfterSeconds)
	w.Header().Set("Cache-Control", "no-store")
	h.render(w, r, page{
		Meta:    PageMeta{Title: "Checking session", Page: PageChecking},
		Content: map[string]string{"RetryAfter": retryAfterSeconds},
		Status:  http.StatusServiceUnavailable,
	})
}

// Restricted implements GuardPages for pages the role may not see.
func (h *Handlers) Restricted(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, page{
		Meta:   PageMeta{Title: "Access Restricted", Page: PageRestricted},
		Status: http.StatusForbidden,
	})
}

// readFailedStatus maps a failed detail lookup to a page status.
func readFailedStatus(err error) int {
	if apperrors.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusOK
}

// formDate parses a yyyy-mm-dd form value; blank or malformed gives the zero time.
func formDate(r *http.Request, key string) time.Time {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(inputDate, v, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formDatePtr is formDate for optional dates.
func formDatePtr(r *http.Request, key string) *time.Time {
	t := formDate(r, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

// formOptional returns nil for a blank field, so patches leave it unchanged.
func formOptional(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil
	}
	return &v
}
