package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/starford/todoseq/internal/models"
)

// Listing limits.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Sort orders accepted by ListTasks.
const (
	SortPath      = "path"
	SortUrgency   = "urgency"
	SortScheduled = "scheduled"
	SortDeadline  = "deadline"
)

var sortClauses = map[string]string{
	SortPath:      "path, line",
	SortUrgency:   "urgency DESC NULLS LAST, path, line",
	SortScheduled: "scheduled IS NULL, scheduled, path, line",
	SortDeadline:  "deadline IS NULL, deadline, path, line",
}

// FileRow represents a row in the files table.
type FileRow struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// TaskFilter narrows ListTasks. Zero values mean "any".
type TaskFilter struct {
	State     string
	Completed *bool
	Priority  models.Priority
	Tag       string
	Path      string
	Limit     int
	Offset    int
	Sort      string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	State   string `json:"state"`
	Text    string `json:"text"`
	Snippet string `json:"snippet"`
}

const taskColumns = `path, line, state, completed, priority, text, raw_text, indent, list_marker, tail,
	scheduled, deadline, tags, embed_ref, footnote_ref, footnote_marker, quote_level, keyword_offset, urgency`

// ReplaceFileTasks records f and replaces every task of f.Path, including FTS
// entries, within one transaction.
func (db *DB) ReplaceFileTasks(f FileRow, tasks []models.Task) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO files (path, checksum, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, f.Path, f.Checksum, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM tasks WHERE path = ?`, f.Path); err != nil {
		return fmt.Errorf("index: clear tasks: %w", err)
	}
	ftsDelete(tx, f.Path)

	if len(tasks) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO tasks (` + taskColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare task insert: %w", err)
		}
		defer stmt.Close()
		for _, t := range tasks {
			tags, _ := json.Marshal(nonNil(t.Tags))
			_, err := stmt.Exec(f.Path, t.Line, t.State, t.Completed, string(t.Priority), t.Text, t.RawText,
				t.Indent, t.ListMarker, t.Tail, nullTime(t.ScheduledDate), nullTime(t.DeadlineDate), string(tags),
				t.EmbedReference, t.FootnoteReference, t.FootnoteMarker, t.QuoteNestingLevel, t.KeywordOffset,
				nullFloat(t.Urgency))
			if err != nil {
				return fmt.Errorf("index: insert task %s:%d: %w", f.Path, t.Line, err)
			}
			if err := ftsInsert(tx, f.Path, t); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file and all of its tasks.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM tasks WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM files WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a file, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed file.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListTasks returns one page of tasks matching f and the total match count.
func (db *DB) ListTasks(f TaskFilter) ([]models.Task, int, error) {
	var (
		where []string
		args  []any
	)
	if f.State != "" {
		where = append(where, "state = ?")
		args = append(args, f.State)
	}
	if f.Completed != nil {
		where = append(where, "completed = ?")
		args = append(args, *f.Completed)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, string(f.Priority))
	}
	if f.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(tasks.tags) WHERE json_each.value = ?)")
		args = append(args, f.Tag)
	}
	if f.Path != "" {
		where = append(where, "path = ?")
		args = append(args, f.Path)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM tasks`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count tasks: %w", err)
	}

	order, ok := sortClauses[f.Sort]
	if !ok {
		order = sortClauses[SortPath]
	}
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	offset := max(f.Offset, 0)

	rows, err := db.conn.Query(`SELECT `+taskColumns+` FROM tasks`+cond+
		` ORDER BY `+order+` LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list tasks: %w", err)
	}
	defer rows.Close()

	out := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// FileTasks returns every indexed task of one file in line order.
func (db *DB) FileTasks(path string) ([]models.Task, error) {
	rows, err := db.conn.Query(`SELECT `+taskColumns+` FROM tasks WHERE path = ? ORDER BY line`, path)
	if err != nil {
		return nil, fmt.Errorf("index: file tasks: %w", err)
	}
	defer rows.Close()

	out := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTask(rows *sql.Rows) (models.Task, error) {
	var (
		t         models.Task
		priority  string
		tags      string
		scheduled sql.NullTime
		deadline  sql.NullTime
		urgency   sql.NullFloat64
	)
	err := rows.Scan(&t.Path, &t.Line, &t.State, &t.Completed, &priority, &t.Text, &t.RawText,
		&t.Indent, &t.ListMarker, &t.Tail, &scheduled, &deadline, &tags, &t.EmbedReference,
		&t.FootnoteReference, &t.FootnoteMarker, &t.QuoteNestingLevel, &t.KeywordOffset, &urgency)
	if err != nil {
		return models.Task{}, fmt.Errorf("index: scan task: %w", err)
	}
	t.Priority = models.Priority(priority)
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil || t.Tags == nil {
		t.Tags = []string{}
	}
	if scheduled.Valid {
		t.ScheduledDate = &scheduled.Time
	}
	if deadline.Valid {
		t.DeadlineDate = &deadline.Time
	}
	if urgency.Valid {
		t.Urgency = &urgency.Float64
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
