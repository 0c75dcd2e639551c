// Package index provides a SQLite-backed task index with optional FTS5
// full-text search over task text.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	path            TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	line            INTEGER NOT NULL,
	state           TEXT NOT NULL,
	completed       INTEGER NOT NULL DEFAULT 0,
	priority        TEXT NOT NULL DEFAULT '',
	text            TEXT NOT NULL DEFAULT '',
	raw_text        TEXT NOT NULL DEFAULT '',
	indent          TEXT NOT NULL DEFAULT '',
	list_marker     TEXT NOT NULL DEFAULT '',
	tail            TEXT NOT NULL DEFAULT '',
	scheduled       DATETIME,
	deadline        DATETIME,
	tags            TEXT NOT NULL DEFAULT '[]',
	embed_ref       TEXT NOT NULL DEFAULT '',
	footnote_ref    TEXT NOT NULL DEFAULT '',
	footnote_marker TEXT NOT NULL DEFAULT '',
	quote_level     INTEGER NOT NULL DEFAULT 0,
	keyword_offset  INTEGER NOT NULL DEFAULT 0,
	urgency         REAL,
	PRIMARY KEY (path, line)
);

CREATE INDEX IF NOT EXISTS idx_tasks_state ON tasks(state);
CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
CREATE INDEX IF NOT EXISTS idx_tasks_scheduled ON tasks(scheduled);
CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Ping reports whether the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
