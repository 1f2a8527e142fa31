package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (and creates if needed) the SQLite database at path and
// ensures required tables exist.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Basic health check + apply a few safe pragmas.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables/indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS webhooks (
  id                TEXT PRIMARY KEY,
  name              TEXT NOT NULL,
  source            TEXT NOT NULL,
  secret            TEXT NOT NULL,
  status            TEXT NOT NULL,
  config            JSON NOT NULL,
  error_message     TEXT,
  last_triggered_at TEXT,
  created_at        TEXT NOT NULL,
  updated_at        TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS webhook_events (
  id              TEXT PRIMARY KEY,
  webhook_id      TEXT NOT NULL,
  status          TEXT NOT NULL,
  payload         JSON,
  debug           JSON,
  config_hash     TEXT,
  workflow_run_id TEXT,
  error           TEXT,
  created_at      TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS workflow_definitions (
  id          TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  description TEXT,
  created_at  TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS workflow_runs (
  id                     TEXT PRIMARY KEY,
  webhook_id             TEXT,
  event_id               TEXT,
  name                   TEXT NOT NULL,
  spec_type_id           TEXT NOT NULL,
  workflow_definition_id TEXT NOT NULL,
  spec_content           TEXT,
  status                 TEXT NOT NULL,
  created_at             TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS webhook_events_webhook_id_created_at_idx ON webhook_events(webhook_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS workflow_runs_created_at_idx ON workflow_runs(created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
