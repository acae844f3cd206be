package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/brokerdesk/admin-console/config"
	"github.com/brokerdesk/admin-console/internal/adapters/backend"
	"github.com/brokerdesk/admin-console/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

// pinger is the part of the backend client check-backend needs.
type pinger interface {
	Ping(ctx context.Context) error
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	In     io.Reader

	openSessions func(ctx context.Context) (*bootstrap.SessionBackend, error)
	newPinger    func() (pinger, error)
}

func main() {
	logger := bootstrap.InitLogger(slog.LevelInfo)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger = bootstrap.InitLogger(cfg.Observability.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := newCommandContext(ctx, logger, cfg)
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newCommandContext(ctx context.Context, logger *slog.Logger, cfg config.AppConfig) *commandContext {
	return &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
		In:     os.Stdin,
		openSessions: func(ctx context.Context) (*bootstrap.SessionBackend, error) {
			return bootstrap.OpenSessionStore(ctx, bootstrap.SessionOptions{
				Session: cfg.Session,
				Redis:   cfg.Redis,
				DB:      cfg.DB,
				Logger:  logger,
			})
		},
		newPinger: func() (pinger, error) {
			client, err := backend.New(backend.Config{
				BaseURL: cfg.Backend.BaseURL,
				Timeout: cfg.Backend.Timeout,
				Logger:  logger,
			})
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

func commands() map[string]command {
	return map[string]command{
		"check-backend": {
			name:        "check-backend",
			description: "Check that the REST backend answers at BACKEND_BASE_URL",
			run:         runCheckBackend,
		},
		"revoke-session": {
			name:        "revoke-session",
			description: "Delete one session so its browser must sign in again",
			run:         runRevokeSession,
		},
		"purge-sessions": {
			name:        "purge-sessions",
			description: "Remove expired and unreadable session records",
			run:         runPurgeSessions,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: admin-console-ctl <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-18s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
