// Package sqlite implements the repository interfaces on top of SQLite.
//
// The driver is modernc.org/sqlite — a pure Go translation of SQLite, so no
// CGo and no C toolchain needed for builds or cross-compilation. The blank
// import below registers it with database/sql under the name "sqlite".
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out the repositories built on
// it. Users and Markers share the pool, so one Close tears everything down.
type DB struct {
	conn    *sql.DB
	users   *UserRepo
	markers *MarkerRepo
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One pooled connection: SQLite serialises writers anyway, and a single
	// connection avoids SQLITE_BUSY under concurrent requests. It also keeps
	// ":memory:" databases coherent — each new connection to ":memory:"
	// would otherwise get its own empty database.
	conn.SetMaxOpenConns(1)

	// Force an immediate connection so a bad path surfaces here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode lets reads proceed while a write is in progress — needed for
	// a web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// SQLite ships with foreign keys OFF. The user→marker cascade depends on
	// them, so turn enforcement on for every connection.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	db.users = &UserRepo{conn: conn}
	db.markers = &MarkerRepo{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserRepo {
	return db.users
}

// Markers returns the marker repository backed by this database.
func (db *DB) Markers() *MarkerRepo {
	return db.markers
}

// Close closes the connection pool. Callers should defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent
// so it is safe to run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// ON DELETE CASCADE: deleting a user removes their markers in the same
	// statement, keeping the "every marker has exactly one owner" invariant.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS markers (
			id          TEXT PRIMARY KEY,
			marker_name TEXT NOT NULL,
			lat         REAL NOT NULL,
			lng         REAL NOT NULL,
			likes       INTEGER NOT NULL DEFAULT 0,
			dislikes    INTEGER NOT NULL DEFAULT 0,
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_markers_user_id ON markers(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating markers table: %w", err)
	}

	// One row per (marker, user) pair — the primary key IS the "vote once"
	// rule. Cascades on both sides so vote rows never outlive the marker or
	// the voter.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS votes (
			marker_id  TEXT NOT NULL REFERENCES markers(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			value      INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (marker_id, user_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating votes table: %w", err)
	}

	return nil
}
