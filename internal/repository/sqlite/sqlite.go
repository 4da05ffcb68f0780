// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// SQLite is an embedded database — no separate server process, a single file
// (or ":memory:" for tests). modernc.org/sqlite is a pure-Go translation of
// the SQLite C code, so there is no CGo dependency and cross-compilation
// stays painless.
//
// The two invariants the schema carries for the application:
//   - users.email is UNIQUE: registration uniqueness is a store constraint,
//     not a check-then-act lookup in application code
//   - event_attendees has PRIMARY KEY (event_id, user_id): RSVP is a single
//     conditional insert against that key, so the attendee set can never
//     pick up a duplicate or lose a concurrent insert
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	// Registers the "sqlite" driver with database/sql; also used directly
	// for *sqlite.Error constraint-code checks below.
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. The pool is shared by every concurrent request; each method
// issues self-contained statements, so no method-level locking is needed.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/eventhub.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	// The pragmas ride on the DSN so the driver applies them to EVERY
	// connection the pool opens, not just the first:
	//   - journal_mode(WAL): readers don't block while a write is in progress
	//   - foreign_keys(1):   off by default in SQLite; the attendee table
	//     relies on it — an RSVP insert for a missing event must fail
	//   - busy_timeout(5000): a writer blocked on SQLite's single write lock
	//     waits instead of failing with SQLITE_BUSY, which is what lets
	//     concurrent RSVPs and registrations all complete
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open only creates the pool; Ping forces a real connection so a
	// bad path or permissions problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Callers should defer this right
// after New so the WAL is flushed and the file lock released on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent
// and safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date        DATETIME NOT NULL,
			location    TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			visibility  TEXT NOT NULL DEFAULT 'public',
			created_by  TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
		CREATE INDEX IF NOT EXISTS idx_events_created_by ON events(created_by);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	// The composite primary key is what makes RSVP a set insertion:
	// INSERT ... ON CONFLICT DO NOTHING against it is the atomic
	// "add to set if absent" primitive.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS event_attendees (
			event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			user_id  TEXT NOT NULL REFERENCES users(id),
			rsvp_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (event_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_event_attendees_user ON event_attendees(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating event_attendees table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE (or primary key)
// constraint failure. The repository methods translate these into
// apperror.Conflict so callers never see driver error codes.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// isForeignKeyViolation reports whether err is a SQLite FOREIGN KEY
// constraint failure — an insert referencing a row that doesn't exist.
func isForeignKeyViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}
