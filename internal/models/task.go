// Package models defines the domain types for todoseq.
package models

import "time"

// Priority is derived from a [#A]/[#B]/[#C] token. The zero value means none.
type Priority string

const (
	PriorityNone Priority = ""
	PriorityHigh Priority = "high"
	PriorityMed  Priority = "med"
	PriorityLow  Priority = "low"
)

// Task is one keyword-led line extracted from a note. It is built once per
// matched line and not modified afterwards.
type Task struct {
	Path              string     `json:"path"`
	Line              int        `json:"line"`
	RawText           string     `json:"raw_text"`
	Indent            string     `json:"indent"`
	ListMarker        string     `json:"list_marker"`
	State             string     `json:"state"`
	Completed         bool       `json:"completed"`
	Priority          Priority   `json:"priority,omitempty"`
	Text              string     `json:"text"`
	Tail              string     `json:"tail,omitempty"`
	ScheduledDate     *time.Time `json:"scheduled_date,omitempty"`
	DeadlineDate      *time.Time `json:"deadline_date,omitempty"`
	Tags              []string   `json:"tags"`
	EmbedReference    string     `json:"embed_reference,omitempty"`
	FootnoteReference string     `json:"footnote_reference,omitempty"`
	FootnoteMarker    string     `json:"footnote_marker,omitempty"`
	QuoteNestingLevel int        `json:"quote_nesting_level"`
	// KeywordOffset is the byte offset of State within the original line.
	KeywordOffset int      `json:"keyword_offset"`
	Urgency       *float64 `json:"urgency,omitempty"`
	// File is the caller's opaque handle, forwarded untouched.
	File any `json:"-"`
}

// FileContext describes the note a task came from, as far as urgency scoring
// cares.
type FileContext struct {
	IsDailyNote   bool       `json:"is_daily_note"`
	DailyNoteDate *time.Time `json:"daily_note_date,omitempty"`
}

// FileMetadata is a lightweight listing entry for a vault file.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
