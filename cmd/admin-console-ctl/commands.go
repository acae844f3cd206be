package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/brokerdesk/admin-console/internal/service"
)

type checkBackendOptions struct {
	Timeout time.Duration
}

func parseCheckBackendFlags(args []string) (checkBackendOptions, error) {
	fs := flag.NewFlagSet("check-backend", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts checkBackendOptions
	fs.DurationVar(&opts.Timeout, "timeout", 5*time.Second, "Give up after this long")
	if err := fs.Parse(args); err != nil {
		return checkBackendOptions{}, err
	}
	if opts.Timeout <= 0 {
		return checkBackendOptions{}, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func runCheckBackend(cmdCtx *commandContext, args []string) error {
	opts, err := parseCheckBackendFlags(args)
	if err != nil {
		return err
	}
	client, err := cmdCtx.newPinger()
	if err != nil {
		return fmt.Errorf("build backend client: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("backend %s unreachable: %w", cmdCtx.Config.Backend.BaseURL, err)
	}
	return writef(cmdCtx.Out, "backend reachable: %s (%s)\n",
		cmdCtx.Config.Backend.BaseURL, time.Since(start).Round(time.Millisecond))
}

type revokeOptions struct {
	SessionID string
	Yes       bool
}

func parseRevokeFlags(args []string) (revokeOptions, error) {
	fs := flag.NewFlagSet("revoke-session", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts revokeOptions
	fs.StringVar(&opts.SessionID, "id", "", "Session ID (the session_id cookie value)")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return revokeOptions{}, err
	}
	opts.SessionID = strings.TrimSpace(opts.SessionID)
	if opts.SessionID == "" {
		return revokeOptions{}, errors.New("--id is required")
	}
	return opts, nil
}

func runRevokeSession(cmdCtx *commandContext, args []string) error {
	opts, err := parseRevokeFlags(args)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if err := confirmAction(cmdCtx, fmt.Sprintf("revoke session %s", opts.SessionID)); err != nil {
			return err
		}
	}

	sessions, err := cmdCtx.openSessions(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("session store close failed", "error", closeErr)
		}
	}()

	if err := sessions.Store.Delete(cmdCtx.Ctx, opts.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	cmdCtx.Logger.Info("session revoked", "store", sessions.Kind)
	return writef(cmdCtx.Out, "session %s revoked\n", opts.SessionID)
}

func runPurgeSessions(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("purge-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sessions, err := cmdCtx.openSessions(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("session store close failed", "error", closeErr)
		}
	}()

	reaper, err := service.NewSessionReaper(service.SessionReaperOptions{
		Purger: sessions.Purger,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	n, err := reaper.PurgeOnce(cmdCtx.Ctx)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	return writef(cmdCtx.Out, "purged %d session(s) from %s store\n", n, sessions.Kind)
}

var errAborted = errors.New("aborted by user")

func confirmAction(cmdCtx *commandContext, action string) error {
	if err := writef(cmdCtx.Out, "About to %s. Continue? [y/N]: ", action); err != nil {
		return err
	}
	line, err := bufio.NewReader(cmdCtx.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}
