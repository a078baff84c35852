// Package dbtest opens the Postgres database named by TEST_DATABASE_URL for
// integration tests, applying migrations and clearing domain tables first.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"nomina/internal/platform/db"
)

func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.Migrate(ctx, pool, db.Migrations()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	if _, err := pool.Exec(ctx, `
    TRUNCATE cuadrilla_empleados, cuadrillas, actividades, empleados, periodos, audit_events, usuarios
    RESTART IDENTITY CASCADE
  `); err != nil {
		t.Fatalf("truncate test database: %v", err)
	}
	return pool
}
