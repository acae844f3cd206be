package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/brokerdesk/admin-console/config"
	"github.com/brokerdesk/admin-console/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger(slog.LevelInfo)
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(cfg.Observability.SlogLevel())
	logStartupInfo(ctx, logger, &cfg)

	app, err := bootstrap.BuildApp(ctx, bootstrap.AppOptions{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close session store failed", "error", cerr)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	server, serveErr := bootstrap.StartHTTPServer(logger, app.Handler, cfg.HTTP.Addr)
	g.Go(func() error {
		select {
		case err, ok := <-serveErr:
			if ok {
				return err
			}
			return nil
		case <-gctx.Done():
			return bootstrap.ShutdownHTTPServer(ctx, server, logger)
		}
	})

	if app.Reaper != nil {
		g.Go(func() error { return app.Reaper.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.InfoContext(ctx, "admin console stopped")
	return nil
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting admin console",
		"auth_mode", cfg.Auth.Mode,
		"backend", cfg.Backend.BaseURL,
		"session_store", cfg.Session.Backend,
		"dev", cfg.IsDev,
		"metrics", cfg.Observability.Metrics.IsEnabled(),
	)
}
