package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminconsole "github.com/brokerdesk/admin-console"
	"github.com/brokerdesk/admin-console/config"
	"github.com/brokerdesk/admin-console/internal/adapters/backend"
	httpx "github.com/brokerdesk/admin-console/internal/http"
	"github.com/brokerdesk/admin-console/internal/observability/metrics"
	"github.com/brokerdesk/admin-console/internal/ports"
	"github.com/brokerdesk/admin-console/internal/service"
)

const (
	staticRoot   = "frontend/static"
	templateRoot = "frontend/templates"
)

// AppOptions configures BuildApp.
type AppOptions struct {
	Config config.AppConfig
	Logger *slog.Logger
	// Sessions overrides the configured store; BuildApp opens one when nil.
	Sessions *SessionBackend
	// HTTPClient overrides the backend transport (tests).
	HTTPClient *http.Client
	Now        func() time.Time
}

// App is the fully wired console.
type App struct {
	Handler  http.Handler
	Gateway  *service.AuthGateway
	Records  *service.RecordsService
	Reaper   *service.SessionReaper // nil when purging is disabled
	Sessions *SessionBackend
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Close releases the session store.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.Sessions.Close()
}

// BuildApp wires config into a ready-to-serve App.
func BuildApp(ctx context.Context, opts AppOptions) (*App, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var (
		m              *metrics.Metrics
		metricsHandler http.Handler
	)
	if cfg.Observability.Metrics.IsEnabled() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	client, err := backend.New(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		HTTPClient: opts.HTTPClient,
		Logger:     logger.With("component", "backend"),
		Observer:   m,
	})
	if err != nil {
		return nil, fmt.Errorf("build backend client: %w", err)
	}
	authn, err := BuildAuthenticator(AuthOptions{Auth: cfg.Auth, Backend: client, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("build authenticator: %w", err)
	}

	sessions := opts.Sessions
	if sessions == nil {
		sessions, err = OpenSessionStore(ctx, SessionOptions{
			Session: cfg.Session,
			Redis:   cfg.Redis,
			DB:      cfg.DB,
			Now:     now,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
	}
	app, err := wireApp(cfg, wiring{
		client:         client,
		authn:          authn,
		sessions:       sessions,
		metrics:        m,
		metricsHandler: metricsHandler,
		now:            now,
		logger:         logger,
	})
	if err != nil {
		return nil, errors.Join(err, sessions.Close())
	}
	return app, nil
}

type wiring struct {
	client         *backend.Client
	authn          ports.Authenticator
	sessions       *SessionBackend
	metrics        *metrics.Metrics
	metricsHandler http.Handler
	now            func() time.Time
	logger         *slog.Logger
}

func wireApp(cfg config.AppConfig, w wiring) (*App, error) {
	gateway := service.NewAuthGateway(service.AuthGatewayOptions{
		Ports: service.GatewayPorts{
			Authenticator: w.authn,
			Backend:       w.client,
			Sessions:      w.sessions.Store,
			Roles:         BuildRoleMapper(cfg.Auth),
			Notifier:      &httpx.RequestNotifier{Logger: w.logger},
		},
		Config: service.GatewayConfig{
			SessionTTL:  cfg.Session.TTL,
			TokenExpiry: backend.TokenExpiry,
			Now:         w.now,
		},
		Telemetry: service.Telemetry{Logger: w.logger.With("component", "auth_gateway"), Metrics: w.metrics},
	})
	records := service.NewRecordsService(service.RecordsServiceOptions{Gateway: gateway, Backend: w.client})

	templates, static, err := frontendFS(cfg.IsDev)
	if err != nil {
		return nil, err
	}
	renderer, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{
		TemplateFS: templates,
		DevMode:    cfg.IsDev,
		Now:        w.now,
		Logger:     w.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	var compression *httpx.CompressionConfig
	if cfg.HTTP.CompressionEnabled {
		w.logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		compression = &httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel}
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Gateway:        gateway,
		Records:        records,
		Renderer:       renderer,
		StaticFS:       static,
		MetricsHandler: w.metricsHandler,
		MetricsPath:    cfg.Observability.Metrics.Path,
		Metrics:        w.metrics,
		CookieDomain:   cfg.HTTP.CookieDomain,
		Compression:    compression,
		IsDev:          cfg.IsDev,
		Logger:         w.logger,
	})

	var reaper *service.SessionReaper
	if cfg.Session.PurgeInterval > 0 {
		reaper, err = service.NewSessionReaper(service.SessionReaperOptions{
			Purger:   w.sessions.Purger,
			Interval: cfg.Session.PurgeInterval,
			Now:      w.now,
			Logger:   w.logger,
			Metrics:  w.metrics,
		})
		if err != nil {
			return nil, fmt.Errorf("build session reaper: %w", err)
		}
	}

	return &App{
		Handler:  handler,
		Gateway:  gateway,
		Records:  records,
		Reaper:   reaper,
		Sessions: w.sessions,
		Metrics:  w.metrics,
		Logger:   w.logger,
	}, nil
}

// frontendFS reads templates and static files from disk in dev and from the
// embedded copies otherwise.
func frontendFS(isDev bool) (fs.FS, fs.FS, error) {
	if isDev {
		return os.DirFS(httpx.TemplatePathFromRoot), os.DirFS(staticRoot), nil
	}
	templates, err := fs.Sub(adminconsole.TemplateFS, templateRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("embedded templates: %w", err)
	}
	static, err := fs.Sub(adminconsole.StaticFS, staticRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("embedded static files: %w", err)
	}
	return templates, static, nil
}
