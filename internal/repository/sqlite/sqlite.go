// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Single-server deployments (which is most apps, honestly)
// - Development and testing (use ":memory:" for an in-memory DB)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// DATABASE/SQL OVERVIEW:
// Go's standard library provides "database/sql" — a generic interface for SQL databases.
// It works with any database through "drivers" (SQLite, Postgres, MySQL, etc.).
// Key types:
//   - sql.DB      — a connection pool (NOT a single connection!)
//   - sql.Tx      — a transaction
//   - sql.Row     — a single result row
//   - sql.Rows    — multiple result rows (must be closed!)
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// BLANK IMPORT:
	// The underscore import `_ "modernc.org/sqlite"` is a "side-effect only" import.
	// The sqlite package's init() function registers itself with database/sql as a
	// driver named "sqlite". After this import, sql.Open("sqlite", ...) knows how
	// to talk to SQLite.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements repository.Store — the user, snippet, social, and
// notification methods are spread over the other files in this package.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/snipnest.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	// PRAGMAs are PER-CONNECTION in SQLite, and sql.DB is a pool: running
	// Exec("PRAGMA foreign_keys=ON") would flip the switch on whichever
	// connection the pool hands out and leave every other connection with
	// the default OFF — so a DELETE routed elsewhere would skip its
	// cascades. The modernc driver applies `_pragma` DSN options to every
	// connection it opens, which is what we need:
	//
	// - journal_mode(WAL): allow concurrent reads while a write is running
	// - foreign_keys(1):   deleting a user must cascade to their snippets,
	//   likes, views, follows, and notifications
	// - busy_timeout(5000): wait for the write lock instead of failing
	conn, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A ":memory:" database exists per connection; with a pool of two, the
	// second connection would see a fresh empty schema. One connection keeps
	// it coherent (SQLite serializes writes anyway).
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// sql.Open does NOT actually open a connection — it just creates a pool
	// manager. Ping forces an immediate connection so a bad path or
	// permissions problem surfaces here, not on the first query.
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

// Close closes the database connection pool.
// Wherever you call New(), defer Close() — it flushes the WAL and releases
// the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS makes this safe to
// run on every startup; for a bigger deployment you'd reach for golang-migrate,
// but a fixed schema with idempotent DDL covers this app.
func (db *DB) migrate() error {
	// users — username and email are unique case-insensitively, so "Alice"
	// and "alice" cannot both register. github_id is only unique when set
	// (0 means the account has no GitHub link), hence the partial index.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL COLLATE NOCASE,
			email         TEXT NOT NULL COLLATE NOCASE,
			password_hash TEXT NOT NULL DEFAULT '',
			display_name  TEXT NOT NULL DEFAULT '',
			bio           TEXT NOT NULL DEFAULT '',
			location      TEXT NOT NULL DEFAULT '',
			website       TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			rank          TEXT NOT NULL DEFAULT 'default',
			github_id     INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != 0;
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// snippets — author_id cascades so deleting a user removes their work.
	// views/likes are denormalized counters maintained by the social methods.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			html        TEXT NOT NULL DEFAULT '',
			css         TEXT NOT NULL DEFAULT '',
			js          TEXT NOT NULL DEFAULT '',
			is_public   INTEGER NOT NULL DEFAULT 1,
			author_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			views       INTEGER NOT NULL DEFAULT 0,
			likes       INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_author_id ON snippets(author_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	// snippet_likes — the composite primary key IS the uniqueness invariant:
	// at most one like per user per snippet. INSERT OR IGNORE against this
	// key makes the like operation idempotent.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippet_likes (
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (snippet_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_snippet_likes_user_id ON snippet_likes(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating snippet_likes table: %w", err)
	}

	// snippet_views — viewer_key is "u:<userID>" for logged-in viewers and
	// "ip:<address>" for anonymous ones; the composite key deduplicates
	// repeat views. user_id is NULL for anonymous views and cascades so a
	// deleted user's views disappear with them.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippet_views (
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			viewer_key TEXT NOT NULL,
			user_id    TEXT REFERENCES users(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (snippet_id, viewer_key)
		);
		CREATE INDEX IF NOT EXISTS idx_snippet_views_user_id ON snippet_views(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating snippet_views table: %w", err)
	}

	// follows — CHECK enforces the "no self-follow" invariant at the lowest
	// layer; the service rejects it earlier with a friendlier message.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS follows (
			follower_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			following_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at   DATETIME NOT NULL,
			PRIMARY KEY (follower_id, following_id),
			CHECK (follower_id != following_id)
		);
		CREATE INDEX IF NOT EXISTS idx_follows_following_id ON follows(following_id);
	`)
	if err != nil {
		return fmt.Errorf("creating follows table: %w", err)
	}

	// notifications — snippet_id/from_user_id are optional references; both
	// cascade, so deleting a snippet (or a user) sweeps away notifications
	// that point at it.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type         TEXT NOT NULL,
			title        TEXT NOT NULL DEFAULT '',
			message      TEXT NOT NULL DEFAULT '',
			snippet_id   TEXT REFERENCES snippets(id) ON DELETE CASCADE,
			from_user_id TEXT REFERENCES users(id) ON DELETE CASCADE,
			is_read      INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id, is_read);
	`)
	if err != nil {
		return fmt.Errorf("creating notifications table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite doesn't export a typed error for this, so we match the
// stable message SQLite itself produces.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullable converts an empty string to a NULL-able value for optional
// foreign key columns (an empty string would violate the FK, NULL does not).
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
