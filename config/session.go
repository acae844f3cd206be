package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionBackend selects where sessions are persisted.
type SessionBackend string

const (
	// SessionBackendRedis stores sessions in Redis (shared across replicas).
	SessionBackendRedis SessionBackend = "redis"
	// SessionBackendSQLite stores sessions in a local SQLite file.
	SessionBackendSQLite SessionBackend = "sqlite"
	// SessionBackendPostgres stores sessions in a PostgreSQL table (shared across replicas).
	SessionBackendPostgres SessionBackend = "postgres"
	// SessionBackendMemory keeps sessions in process memory (dev and tests).
	SessionBackendMemory SessionBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (s *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "sqlite", "postgres", "memory":
		*s = SessionBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: redis, sqlite, postgres, memory)", v)
	}
}

const (
	defaultSessionTTL        = 12 * time.Hour
	defaultSessionSQLitePath = "data/sessions.db"
)

// SessionConfig contains session persistence configuration.
type SessionConfig struct {
	Backend SessionBackend `env:"SESSION_STORE" envDefault:"redis"`

	// TTL applies when the bearer token carries no exp claim.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// SQLitePath is the database file used when Backend=sqlite.
	SQLitePath string `env:"SESSION_SQLITE_PATH" envDefault:"data/sessions.db"`

	// PurgeInterval is how often expired records are removed. Zero disables the reaper.
	PurgeInterval time.Duration `env:"SESSION_PURGE_INTERVAL" envDefault:"15m"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.TTL <= 0 {
		s.TTL = defaultSessionTTL
	}
	s.SQLitePath = strings.TrimSpace(s.SQLitePath)
	if s.SQLitePath == "" {
		s.SQLitePath = defaultSessionSQLitePath
	}
	if s.PurgeInterval < 0 {
		s.PurgeInterval = 0
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
}

// DBConfig contains PostgreSQL configuration for Backend=postgres.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"console"`
	Password string `env:"PASSWORD" envDefault:"console"`
	Name     string `env:"NAME"     envDefault:"console"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // 'require' in production
}
