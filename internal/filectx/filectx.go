// Package filectx classifies vault files for urgency scoring, currently
// whether a file is a daily note and for which date.
package filectx

import (
	"bytes"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/todoseq/internal/models"
)

// Resolver returns context for an opaque file handle. ok is false when the
// handle is not understood or the lookup failed; callers treat that as "not a
// daily note".
type Resolver interface {
	Resolve(file any) (ctx models.FileContext, ok bool)
}

// File is the handle the host passes as a task's file reference.
type File struct {
	Path    string
	Content []byte
}

// DailyNotes recognises daily notes by file name (Layout, inside Folder) or by
// frontmatter with `type: daily` and a `date:` field.
type DailyNotes struct {
	Folder   string
	Layout   string
	Location *time.Location
}

var _ Resolver = DailyNotes{}

// Resolve implements Resolver. It never panics.
func (d DailyNotes) Resolve(file any) (ctx models.FileContext, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ctx, ok = models.FileContext{}, false
		}
	}()

	var f File
	switch v := file.(type) {
	case File:
		f = v
	case *File:
		if v == nil {
			return models.FileContext{}, false
		}
		f = *v
	default:
		return models.FileContext{}, false
	}

	if date, found := d.fromFrontmatter(f.Content); found {
		return models.FileContext{IsDailyNote: true, DailyNoteDate: &date}, true
	}
	if date, found := d.fromName(f.Path); found {
		return models.FileContext{IsDailyNote: true, DailyNoteDate: &date}, true
	}
	return models.FileContext{}, true
}

func (d DailyNotes) layout() string {
	if d.Layout == "" {
		return "2006-01-02"
	}
	return d.Layout
}

func (d DailyNotes) location() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

func (d DailyNotes) fromName(p string) (time.Time, bool) {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if d.Folder != "" {
		folder := strings.Trim(path.Clean(d.Folder), "/")
		if !strings.HasPrefix(p, folder+"/") {
			return time.Time{}, false
		}
	}
	base := strings.TrimSuffix(path.Base(p), path.Ext(p))
	t, err := time.ParseInLocation(d.layout(), base, d.location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type frontmatter struct {
	Type string `yaml:"type"`
	Date string `yaml:"date"`
}

func (d DailyNotes) fromFrontmatter(data []byte) (time.Time, bool) {
	block, found := splitFrontmatter(data)
	if !found {
		return time.Time{}, false
	}
	var fm frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return time.Time{}, false
	}
	if !strings.EqualFold(fm.Type, "daily") || fm.Date == "" {
		return time.Time{}, false
	}
	date := fm.Date
	if len(date) > len("2006-01-02") {
		date = date[:len("2006-01-02")]
	}
	t, err := time.ParseInLocation("2006-01-02", date, d.location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// splitFrontmatter returns the YAML between leading --- delimiters. Content
// without a closing delimiter has no frontmatter.
func splitFrontmatter(data []byte) ([]byte, bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, false
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, false
	}
	return rest[:idx], true
}
