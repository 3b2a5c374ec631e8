package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a database to version.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations run in order on databases whose user_version is below their
// version. Each statement is idempotent.
var migrations = []migration{
	{
		version: 1,
		name:    "reference edges",
		stmts: []string{
			// Reference edges from a record field to the nested record it
			// held when written. Foreign-key identifiers given as text are
			// not recorded.
			`CREATE TABLE IF NOT EXISTS record_refs (
				type      TEXT NOT NULL,
				id        TEXT NOT NULL,
				path      TEXT NOT NULL,
				ref_type  TEXT NOT NULL,
				ref_id    TEXT NOT NULL,
				PRIMARY KEY (type, id, path),
				FOREIGN KEY (type, id) REFERENCES records(type, id),
				FOREIGN KEY (ref_type, ref_id) REFERENCES records(type, id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_record_refs_target ON record_refs(ref_type, ref_id)`,
		},
	},
	{
		version: 2,
		name:    "content hash index",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_records_hash ON records(content_hash)`,
		},
	},
}

// currentSchemaVersion is the version of the last migration.
var currentSchemaVersion = migrations[len(migrations)-1].version

// Store persists canonical record instances.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path; ":memory:"
// opens a private in-memory database. Pragmas and migrations are applied
// on every open.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Open fails if the SQLite build lacks the JSON functions Find relies on.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory
	// database exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := setup(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func setup(db *sql.DB) error {
	if err := applyPragmas(db); err != nil {
		return fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := requireJSON(db); err != nil {
		return err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func requireJSON(db *sql.DB) error {
	var v int
	if err := db.QueryRow(`SELECT json_extract('{"a":1}', '$.a')`).Scan(&v); err != nil {
		return fmt.Errorf("sqlite JSON functions unavailable: %w", err)
	}
	return nil
}

// migrate applies every migration above the database's user_version, each
// in its own transaction together with the version bump.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
			}
		}
		// PRAGMA does not take parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("set user_version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: commit: %w", m.version, err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
