//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/todoseq/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE fallback on the tasks table.
	return nil
}

func ftsInsert(_ *sql.Tx, _ string, _ models.Task) error {
	// Text and tags are already stored in the tasks table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// likeEscaper keeps LIKE wildcards in a query literal.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.conn.Query(`
		SELECT path, line, state, text, substr(raw_text, 1, 200)
		FROM tasks
		WHERE text LIKE ?1 ESCAPE '\' OR tags LIKE ?1 ESCAPE '\' OR state LIKE ?1 ESCAPE '\'
		ORDER BY path, line
		LIMIT ?2
	`, like, limit)
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
