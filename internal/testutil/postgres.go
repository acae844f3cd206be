package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	// Registers the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

func requireDB() bool { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// TestPostgresDSN returns the DSN of the test database. Defaults match the
// local compose test profile on port 55432; CI sets TEST_DB_PORT=5432.
func TestPostgresDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getEnvOrDefault("TEST_DB_USER", "console"), getEnvOrDefault("TEST_DB_PASSWORD", "console")),
		Host:   net.JoinHostPort(getEnvOrDefault("TEST_DB_HOST", "localhost"), getEnvOrDefault("TEST_DB_PORT", "55432")),
		Path:   "/" + getEnvOrDefault("TEST_DB_NAME", "console"),
	}
	q := u.Query()
	q.Set("sslmode", getEnvOrDefault("TEST_DB_SSL_MODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

// SetupTestPostgres returns a handle whose search_path is a fresh schema that
// is dropped when the test ends. Tests are skipped when PostgreSQL is not
// reachable unless TEST_REQUIRE_DB is set.
func SetupTestPostgres(t TestingTB) *sql.DB {
	t.Helper()

	admin := openPostgres(t, TestPostgresDSN())
	schema := postgresSchemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		_ = admin.Close()
		t.Fatalf("create schema %s: %v", schema, err)
	}

	u, err := url.Parse(TestPostgresDSN())
	if err != nil {
		_ = admin.Close()
		t.Fatal("parse test dsn:", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	db := openPostgres(t, u.String())

	if tc, ok := any(t).(interface{ Cleanup(func()) }); ok {
		tc.Cleanup(func() {
			_ = db.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := admin.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
				t.Logf("warning: failed to drop schema %s: %v", schema, err)
			}
			if err := admin.Close(); err != nil {
				t.Logf("warning: failed to close admin db: %v", err)
			}
		})
	}
	return db
}

func openPostgres(t TestingTB, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", dsn)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return db
		}
		_ = db.Close()
	}
	if requireDB() {
		t.Fatal("Test database not available:", err)
	}
	t.Skip("Test database not available:", err)
	return nil
}

func postgresSchemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%d", time.Now().UnixNano())
	}
	return "t_" + hex.EncodeToString(b)
}
