package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a single SQLite connection configured for the library's
// single-writer discipline.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at path and applies the pragmas
// a single-writer, WAL-mode workload needs. It is idempotent - safe to
// call multiple times against the same path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connect %s: %w", path, err)
	}

	// SQLite serializes writers; pooling more than one connection only
	// invites SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply pragmas: %w", err)
	}

	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("exec %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying *sql.DB for callers (schema validation, the
// CLI's direct catalog inspection) that need it. Prefer BeginTx for any
// mutation; this escape hatch is read/DDL only.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EnsureSchema executes ddl against the connection. It is meant for
// idempotent "CREATE TABLE IF NOT EXISTS"/"CREATE INDEX IF NOT EXISTS"
// statements - the library itself never decides a caller's table shape
// (§6), but tests and the fixtures harness need some concrete table to
// run against.
func (s *Store) EnsureSchema(ddl string) error {
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// UserVersion reads PRAGMA user_version, the counter the migrate package
// and the CLI use to track which schema revision a database is on.
func (s *Store) UserVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("store: read user_version: %w", err)
	}
	return v, nil
}

// SetUserVersion writes PRAGMA user_version.
func (s *Store) SetUserVersion(v int) error {
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		return fmt.Errorf("store: set user_version: %w", err)
	}
	return nil
}
