package httpx

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/brokerdesk/admin-console/internal/domain/access"
	"github.com/brokerdesk/admin-console/internal/observability/metrics"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Gateway  AuthGateway
	Records  RecordsService
	Renderer *TemplateRenderer
	// StaticFS is served under /static/. Nil disables static files.
	StaticFS fs.FS
	// MetricsHandler is mounted at MetricsPath when both are set.
	MetricsHandler http.Handler
	MetricsPath    string
	Metrics        *metrics.Metrics

	CookieDomain string
	// Compression enables gzip when non-nil.
	Compression *CompressionConfig
	IsDev       bool
	Logger      *slog.Logger
}

// NewRouter builds the console's handler tree.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		Gateway:      services.Gateway,
		Records:      services.Records,
		T:            services.Renderer,
		CookieDomain: services.CookieDomain,
		IsDev:        services.IsDev,
		Logger:       logger,
	}
	guard := func(pattern string) func(http.Handler) http.Handler {
		return RequireAccess(mustRoute(pattern), GuardOptions{Pages: h, Metrics: services.Metrics})
	}

	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc, mw ...func(http.Handler) http.Handler) {
		var next http.Handler = fn
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		mux.Handle(pattern, tagRoute(next))
	}

	handle("GET "+healthPath, healthHandler)
	handle("HEAD "+healthPath, healthHandler)
	handle("GET /auth/status", h.Status)

	handle("GET "+access.PathLogin, h.LoginPage)
	handle("POST "+access.PathLogin, h.Login)
	handle("POST "+access.PathLogout, h.Logout, guard(access.PathLogout))

	handle("GET /{$}", h.Dashboard, guard(access.PathDashboard))

	users := guard(access.PathUsers)
	user := guard(access.PathUsers + "/{id}")
	handle("GET "+access.PathUsers, h.Users, users)
	handle("POST "+access.PathUsers, h.CreateUser, users)
	handle("GET "+access.PathUsers+"/{id}", h.User, user)
	handle("POST "+access.PathUsers+"/{id}/delete", h.DeleteUser, user)

	policies := guard(access.PathPolicies)
	policy := guard(access.PathPolicies + "/{id}")
	handle("GET "+access.PathPolicies, h.Policies, policies)
	handle("POST "+access.PathPolicies, h.CreatePolicy, policies)
	handle("GET "+access.PathPolicies+"/{id}", h.Policy, policy)
	handle("POST "+access.PathPolicies+"/{id}/delete", h.DeletePolicy, policy)
	handle("POST "+access.PathPolicies+"/{id}/documents", h.UploadDocument, policy)

	documents := guard(access.PathDocuments)
	handle("GET "+access.PathDocuments, h.Documents, documents)
	handle("GET "+access.PathDocuments+"/{id}/download", h.DownloadDocument, documents)

	admins := guard(access.PathAdminManagement)
	handle("GET "+access.PathAdminManagement, h.AdminManagement, admins)
	handle("POST "+access.PathAdminManagement+"/admins", h.CreateAdmin, admins)
	handle("POST "+access.PathAdminManagement+"/admins/{id}", h.UpdateAdmin, admins)
	handle("POST "+access.PathAdminManagement+"/admins/{id}/toggle", h.ToggleAdmin, admins)
	handle("POST "+access.PathAdminManagement+"/admins/{id}/password", h.SetAdminPassword, admins)
	handle("POST "+access.PathAdminManagement+"/admins/{id}/delete", h.DeleteAdmin, admins)

	settings := guard(access.PathSettings)
	handle("GET "+access.PathSettings, h.Settings, settings)
	handle("POST "+access.PathSettings+"/profile", h.UpdateProfile, settings)
	handle("POST "+access.PathSettings+"/password", h.ChangePassword, settings)

	if services.StaticFS != nil {
		static := http.StripPrefix("/static/", http.FileServerFS(services.StaticFS))
		mux.Handle("GET /static/", tagRoute(cacheStatic(static, services.IsDev)))
	}
	if services.MetricsHandler != nil && services.MetricsPath != "" {
		mux.Handle("GET "+services.MetricsPath, tagRoute(services.MetricsHandler))
	}

	handle("/", h.NotFound)

	chain := []func(http.Handler) http.Handler{
		Recover(logger),
		Logging(logger, services.Metrics),
	}
	if services.Compression != nil {
		cfg := *services.Compression
		if cfg.Logger == nil {
			cfg.Logger = logger
		}
		chain = append(chain, Compression(cfg))
	}
	chain = append(chain,
		BrowserDetection(),
		CollectNotices(),
		CSRF(CSRFConfig{CookieDomain: services.CookieDomain}),
		LoadSession(services.Gateway, services.CookieDomain, services.MetricsPath),
	)

	var handler http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler
}

// mustRoute returns the access route registered for exactly pattern.
func mustRoute(pattern string) access.Route {
	for _, r := range access.Routes {
		if r.Pattern == pattern {
			return r
		}
	}
	panic(fmt.Sprintf("httpx: no access route for %q", pattern))
}

// cacheStatic sets cache headers on static assets. Dev builds are never cached.
func cacheStatic(next http.Handler, isDev bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isDev {
			w.Header().Set("Cache-Control", "no-cache")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		next.ServeHTTP(w, r)
	})
}

const healthPath = "/healthz"

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte("ok"))
	}
}
