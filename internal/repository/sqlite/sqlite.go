// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// TRANSACTIONS AND LOCKING:
// SQLite allows one writer at a time. Every transaction is opened with
// BEGIN IMMEDIATE (the _txlock=immediate DSN parameter), which takes the write
// lock up front. Two team mutations therefore never interleave: the second one
// waits (busy_timeout) until the first commits, and then re-reads fresh rows.
// The unique indexes created in migrate() are the second line of defence.
//
// PER-CONNECTION PRAGMAS:
// database/sql keeps a pool of connections, and PRAGMA foreign_keys only
// applies to the connection it runs on. That is why foreign_keys and
// busy_timeout are passed through the DSN (_pragma=...) so every pooled
// connection gets them.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/robosaga/internal/repository"
)

var (
	_ repository.Store = (*DB)(nil)
	_ repository.Tx    = (*queries)(nil)
)

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every repository method. It runs against the pool when
// embedded in DB and against a transaction inside WithTx.
type queries struct {
	q dbtx
}

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	*queries
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/robosaga.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
//
// Every connection to ":memory:" is a separate, empty database, so the pool
// is capped at one connection in that case.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write transaction is open.
	// It is stored in the database file, so running it once is enough.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{
		queries: &queries{q: conn},
		conn:    conn,
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_txlock=immediate",
		"_time_format=sqlite",
	}
	return dbPath + "?" + strings.Join(params, "&")
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back on an error or a panic.
func (db *DB) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&queries{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			github_id  INTEGER NOT NULL UNIQUE,
			login      TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			email      TEXT UNIQUE,
			avatar_url TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL DEFAULT 'user'
			           CHECK (role IN ('admin', 'moderator', 'user')),
			roll_no    TEXT NOT NULL DEFAULT '',
			branch     TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// A user belongs to at most one team: the unique index on
	// team_members(user_id) enforces it even if two requests race.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS teams (
			id         TEXT PRIMARY KEY,
			slug       TEXT NOT NULL UNIQUE,
			name       TEXT NOT NULL,
			score      INTEGER NOT NULL DEFAULT 0,
			leader_id  TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_teams_score ON teams(score DESC, created_at, id);

		CREATE TABLE IF NOT EXISTS team_members (
			team_id   TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role      TEXT NOT NULL CHECK (role IN ('leader', 'member')),
			joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (team_id, user_id)
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_team_members_user ON team_members(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating team tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS join_requests (
			id         TEXT PRIMARY KEY,
			team_id    TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status     TEXT NOT NULL DEFAULT 'pending'
			           CHECK (status IN ('pending', 'accepted', 'rejected')),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_join_requests_pending
			ON join_requests(team_id, user_id) WHERE status = 'pending';
		CREATE INDEX IF NOT EXISTS idx_join_requests_user ON join_requests(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating join_requests table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id         TEXT PRIMARY KEY,
			slug       TEXT NOT NULL UNIQUE,
			name       TEXT NOT NULL,
			category   TEXT NOT NULL DEFAULT '',
			max_score  INTEGER NOT NULL CHECK (max_score > 0),
			is_active  INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS event_registrations (
			id            TEXT PRIMARY KEY,
			event_id      TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			team_id       TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			score         INTEGER DEFAULT 0,
			rank          INTEGER,
			registered_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (event_id, team_id)
		);
		CREATE INDEX IF NOT EXISTS idx_event_registrations_team ON event_registrations(team_id);
	`)
	if err != nil {
		return fmt.Errorf("creating event tables: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// nullString maps "" to NULL so optional UNIQUE columns don't collide on empty values.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// checkAffected turns "zero rows touched" into the given not-found error.
func checkAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
