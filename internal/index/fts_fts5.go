//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/todoseq/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
			path UNINDEXED,
			line UNINDEXED,
			state,
			text,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, path string, t models.Task) error {
	_, err := tx.Exec(`INSERT INTO tasks_fts (path, line, state, text, tags) VALUES (?, ?, ?, ?, ?)`,
		path, t.Line, t.State, t.Text, strings.Join(t.Tags, " "))
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM tasks_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search and returns matching tasks with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path,
		       line,
		       state,
		       text,
		       snippet(tasks_fts, 3, '<b>', '</b>', '...', 32)
		FROM tasks_fts
		WHERE tasks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Line, &r.State, &r.Text, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
