package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/brokerdesk/admin-console/internal/domain/access"
	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/observability/metrics"
)

// SessionCookieName holds the opaque session id.
const SessionCookieName = "session_id"

const unmatchedRoute = "unmatched"

type routeKey struct{}

// Logging logs every request and records HTTP metrics labelled by the
// matched route pattern (see tagRoute).
func Logging(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := unmatchedRoute
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), routeKey{}, &route)))

			d := time.Since(start)
			m.ObserveHTTP(r.Method, route, ww.status, d)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", ww.status),
				slog.Duration("duration", d),
			)
		})
	}
}

// tagRoute records the mux pattern for the Logging middleware.
func tagRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := r.Context().Value(routeKey{}).(*string); ok && r.Pattern != "" {
			*p = r.Pattern
		}
		next.ServeHTTP(w, r)
	})
}

type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover turns panics into a 500 and logs the stack.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type browserRequestKey struct{}

// BrowserDetection marks whether the request expects HTML or JSON.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest reports whether the request should get HTML responses.
func IsBrowserRequest(r *http.Request) bool {
	if v, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return v
	}
	return isBrowserRequest(r)
}

func isBrowserRequest(r *http.Request) bool {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/"), strings.HasPrefix(r.URL.Path, "/auth/"),
		strings.HasPrefix(r.URL.Path, "/static/"):
		return false
	case IsHTMX(r):
		return true
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// SessionRestorer loads the auth view for a session id.
type SessionRestorer interface {
	Restore(ctx context.Context, sessionID string) domainauth.View
}

// LoadSession restores the session named by the session cookie once per
// request and stores the resulting view in the context. A cookie that no
// longer resolves to a session is cleared. Static assets, the health check
// and any extra skip paths never touch the session store.
func LoadSession(restorer SessionRestorer, cookieDomain string, skipPaths ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessionExempt(r.URL.Path, skipPaths) {
				next.ServeHTTP(w, r)
				return
			}
			id := cookieValue(r, SessionCookieName)
			view := restorer.Restore(r.Context(), id)
			if id != "" && view.State == domainauth.StateLoggedOut {
				expireCookie(w, r, cookieSpec{Name: SessionCookieName, Domain: cookieDomain})
			}
			next.ServeHTTP(w, r.WithContext(SetViewInContext(r.Context(), &view)))
		})
	}
}

func sessionExempt(path string, extra []string) bool {
	if strings.HasPrefix(path, "/static/") || path == healthPath {
		return true
	}
	for _, p := range extra {
		if p != "" && path == p {
			return true
		}
	}
	return false
}

// GuardPages renders the guard outcomes that are not redirects.
type GuardPages interface {
	Checking(w http.ResponseWriter, r *http.Request)
	Restricted(w http.ResponseWriter, r *http.Request)
}

// GuardOptions configures RequireAccess.
type GuardOptions struct {
	Pages   GuardPages
	Metrics *metrics.Metrics
}

// RequireAccess enforces the route's guards against the request's view.
// Browser requests are redirected or shown a page; API requests get JSON.
func RequireAccess(route access.Route, opts GuardOptions) func(http.Handler) http.Handler {
	guardName := guardLabel(route.Guards)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			view := ViewFromContext(r.Context())
			decision := access.Evaluate(*view, r.URL.Path, route.Guards...)
			opts.Metrics.GuardDecision(guardName, decision.String())

			switch decision {
			case access.Allow:
				next.ServeHTTP(w, r)
			case access.Checking:
				if IsBrowserRequest(r) && opts.Pages != nil {
					opts.Pages.Checking(w, r)
					return
				}
				w.Header().Set("Retry-After", retryAfterSeconds)
				WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "session_unavailable"})
			case access.RedirectLogin:
				if !IsBrowserRequest(r) {
					WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required"})
					return
				}
				redirectToLogin(w, r)
			case access.RedirectSuperAdminHome:
				redirectTo(w, r, access.PathAdminManagement)
			case access.DenyInline:
				if IsBrowserRequest(r) && opts.Pages != nil {
					opts.Pages.Restricted(w, r)
					return
				}
				WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "insufficient_permissions"})
			}
		})
	}
}

func guardLabel(guards []access.Guard) string {
	names := make([]string, 0, len(guards))
	for _, g := range guards {
		names = append(names, g.Name())
	}
	return strings.Join(names, "+")
}

// redirectTo navigates the browser to target; htmx requests get Hx-Redirect.
func redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		HTMX(w).Redirect(target)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// redirectToLogin sends the browser to the login page, preserving where it was headed.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectTo(w, r, loginURL(redirectPathForRequest(r)))
}

func loginURL(origin string) string {
	if origin == "" || origin == access.PathDashboard {
		return access.PathLogin
	}
	return access.PathLogin + "?redirect_uri=" + url.QueryEscape(origin)
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
	}
	if r.Method != http.MethodGet {
		// The origin of a form post is the page that rendered it.
		return safeRedirectFromURL(r.Header.Get("Referer"))
	}
	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	return safeRedirectPath(raw)
}

// safeRedirectPath accepts only local absolute paths. The auth pages themselves
// are rejected so a login never bounces back to login or logout.
func safeRedirectPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	if u.Path == access.PathLogin || u.Path == access.PathLogout {
		return ""
	}
	return u.RequestURI()
}
