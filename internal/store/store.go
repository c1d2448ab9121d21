// Package store persists the event log and document snapshots in SQLite.
//
// The core issues only inserts and selects; it never updates or deletes
// event rows. The log is the single source of truth, snapshots are an
// optimization on top of it.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added timestamp indexes on events and snapshots
const currentSchemaVersion = 1

// Store provides durable storage for the event log and snapshots.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically; idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &PersistenceError{Code: ErrCodeIO, Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &PersistenceError{Code: ErrCodeIO, Op: "open", Err: err}
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent flushes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewFromDB wraps an existing database handle. The caller is responsible
// for schema setup. Used by driver-level tests.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return &PersistenceError{Code: ErrCodeIO, Op: "pragma", Err: fmt.Errorf("%s: %w", pragma, err)}
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return &PersistenceError{Code: ErrCodeIO, Op: "schema", Err: err}
	}
	if err := runMigrations(db); err != nil {
		return err
	}
	return nil
}

// runMigrations applies incremental schema migrations based on
// user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return &PersistenceError{Code: ErrCodeIO, Op: "migrate", Err: err}
	}

	if version < 1 {
		// New databases get these from schema.sql; pre-v1 databases need
		// them added explicitly. IF NOT EXISTS makes this a no-op either way.
		stmts := []string{
			"CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp)",
			"CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(timestamp)",
		}
		for _, stmt := range stmts {
			if _, err := db.Exec(stmt); err != nil {
				return &PersistenceError{Code: ErrCodeIO, Op: "migrate", Err: err}
			}
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return &PersistenceError{Code: ErrCodeIO, Op: "migrate", Err: err}
	}
	return nil
}
