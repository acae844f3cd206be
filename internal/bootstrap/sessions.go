package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brokerdesk/admin-console/config"
	"github.com/brokerdesk/admin-console/internal/adapters/memory"
	pgadapter "github.com/brokerdesk/admin-console/internal/adapters/postgres"
	redisadapter "github.com/brokerdesk/admin-console/internal/adapters/redis"
	sqliteadapter "github.com/brokerdesk/admin-console/internal/adapters/sqlite"
	"github.com/brokerdesk/admin-console/internal/ports"
)

// SessionBackend is an opened session store plus the handle that releases it.
type SessionBackend struct {
	Store  ports.SessionStore
	Purger ports.SessionPurger
	Kind   config.SessionBackend
	close  func() error
}

// Close releases the underlying connection. Safe on a nil receiver.
func (b *SessionBackend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// SessionOptions selects and configures the session store.
type SessionOptions struct {
	Session config.SessionConfig
	Redis   config.RedisConfig
	DB      config.DBConfig
	Now     func() time.Time
	Logger  *slog.Logger
}

// OpenSessionStore opens the store named by opts.Session.Backend.
func OpenSessionStore(ctx context.Context, opts SessionOptions) (*SessionBackend, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch opts.Session.Backend {
	case config.SessionBackendMemory:
		logger.WarnContext(ctx, "sessions are kept in memory and lost on restart")
		store := memory.NewSessionStore(now)
		return &SessionBackend{Store: store, Purger: store, Kind: config.SessionBackendMemory}, nil

	case config.SessionBackendSQLite:
		store, err := sqliteadapter.Open(opts.Session.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		store.SetClock(now)
		logger.InfoContext(ctx, "sqlite session store opened", "path", opts.Session.SQLitePath)
		return &SessionBackend{Store: store, Purger: store, Kind: config.SessionBackendSQLite, close: store.Close}, nil

	case config.SessionBackendPostgres:
		db, err := ConnectDB(ctx, opts.DB, logger)
		if err != nil {
			return nil, fmt.Errorf("connect session database: %w", err)
		}
		store, err := pgadapter.NewSessionStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("open postgres session store: %w", err)
		}
		store.SetClock(now)
		return &SessionBackend{Store: store, Purger: store, Kind: config.SessionBackendPostgres, close: db.Close}, nil

	case config.SessionBackendRedis, "":
		client, err := ConnectRedis(ctx, opts.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect session redis: %w", err)
		}
		store := redisadapter.NewSessionStore(client, redisadapter.WithClock(now))
		return &SessionBackend{Store: store, Purger: store, Kind: config.SessionBackendRedis, close: client.Close}, nil

	default:
		return nil, fmt.Errorf("unknown session store %q", opts.Session.Backend)
	}
}
