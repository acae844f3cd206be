package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/brokerdesk/admin-console/internal/observability/metrics"
	"github.com/brokerdesk/admin-console/internal/ports"
)

// DefaultPurgeInterval is used when SessionReaperOptions.Interval is zero.
const DefaultPurgeInterval = 15 * time.Minute

// SessionReaperOptions groups dependencies for SessionReaper.
type SessionReaperOptions struct {
	Purger   ports.SessionPurger // required
	Interval time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// SessionReaper removes expired and undecodable session records on a timer.
// Redis expires keys on its own, so the reaper mostly matters for SQLite.
type SessionReaper struct {
	purger   ports.SessionPurger
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewSessionReaper constructs a SessionReaper.
func NewSessionReaper(opts SessionReaperOptions) (*SessionReaper, error) {
	if opts.Purger == nil {
		return nil, errors.New("SessionPurger is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionReaper{
		purger:   opts.Purger,
		interval: interval,
		now:      now,
		logger:   logger.With("component", "session_reaper"),
		metrics:  opts.Metrics,
	}, nil
}

// PurgeOnce runs a single purge pass and returns the number of records removed.
func (r *SessionReaper) PurgeOnce(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := r.purger.PurgeExpired(ctx, r.now())
	if err != nil {
		return n, err
	}
	r.metrics.Purged(n)
	if n > 0 {
		r.logger.InfoContext(ctx, "purged sessions", "count", n, "duration_ms", time.Since(start).Milliseconds())
	}
	return n, nil
}

// Run purges on every tick until ctx is cancelled. Failed passes are logged
// and retried on the next tick. Returns nil on cancellation.
func (r *SessionReaper) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting session reaper", "interval", r.interval)
	r.waitWithJitter(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "session reaper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *SessionReaper) pass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.PurgeOnce(ctx); err != nil && ctx.Err() == nil {
		r.logger.WarnContext(ctx, "session purge failed", "error", err)
	}
}

// waitWithJitter sleeps up to a tenth of the interval so replicas sharing a
// store do not purge in lockstep.
func (r *SessionReaper) waitWithJitter(ctx context.Context) {
	maxJitter := int64(r.interval / 10)
	if maxJitter <= 0 {
		return
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter
	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}
