package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/donnachab/jam/internal/application"
)

// Store wraps a SQLite database handle shared by the repositories.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given DSN.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The modernc driver serializes writes itself, but a single connection
	// avoids SQLITE_BUSY between concurrent request goroutines.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS jams (
		id         TEXT PRIMARY KEY,
		date       TEXT NOT NULL,
		day        TEXT NOT NULL DEFAULT '',
		venue      TEXT NOT NULL,
		time       TEXT NOT NULL,
		map_link   TEXT NOT NULL DEFAULT '',
		cancelled  INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS site_config (
		id               INTEGER PRIMARY KEY CHECK (id = 1),
		default_day      TEXT NOT NULL DEFAULT '',
		default_venue    TEXT NOT NULL DEFAULT '',
		default_time     TEXT NOT NULL DEFAULT '',
		default_map_link TEXT NOT NULL DEFAULT '',
		updated_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS venues (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		map_link   TEXT NOT NULL DEFAULT '',
		image_url  TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS community_items (
		id            TEXT PRIMARY KEY,
		type          TEXT NOT NULL,
		headline      TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL,
		image_url     TEXT NOT NULL DEFAULT '',
		amount_raised TEXT NOT NULL DEFAULT '',
		charity_name  TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		start_date  TEXT NOT NULL,
		end_date    TEXT NOT NULL,
		time        TEXT NOT NULL DEFAULT '',
		venue       TEXT NOT NULL DEFAULT '',
		map_link    TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS gallery_photos (
		id         TEXT PRIMARY KEY,
		url        TEXT NOT NULL,
		caption    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS identities (
		uid        TEXT PRIMARY KEY,
		token      TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS admin_claims (
		uid        TEXT PRIMARY KEY,
		is_admin   INTEGER NOT NULL DEFAULT 0,
		expires_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rate_limits (
		uid          TEXT PRIMARY KEY,
		attempts     INTEGER NOT NULL DEFAULT 0,
		window_start TEXT NOT NULL,
		locked_until TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		uid        TEXT NOT NULL,
		action     TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_uid ON audit_log (uid, created_at)`,
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// mapError translates driver errors into the application sentinels the
// services branch on.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return application.ErrNotFound
	}
	return err
}
