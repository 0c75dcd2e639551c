package parser

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/starford/todoseq/internal/models"
)

// errContractViolation marks a capture that failed after the test pattern
// accepted the same input. Valid input never reaches it.
var errContractViolation = errors.New("parser: capture failed after test matched")

// extract matches act against its family and builds the task for line.
func (p *Parser) extract(act action, line string, lineNumber int, path string) (models.Task, bool) {
	f := act.family
	seg := act.segment
	if !f.Test.MatchString(seg) {
		return models.Task{}, false
	}
	m := f.Capture.FindStringSubmatchIndex(seg)
	if m == nil {
		p.logger.Error("parser: extract",
			slog.String("path", path),
			slog.Int("line", lineNumber),
			slog.String("error", errContractViolation.Error()))
		return models.Task{}, false
	}
	group := func(i int) string {
		if i == 0 || m[2*i] < 0 {
			return ""
		}
		return seg[m[2*i]:m[2*i+1]]
	}

	t := models.Task{
		Path:              path,
		Line:              lineNumber,
		RawText:           line,
		Indent:            group(f.prefix),
		ListMarker:        group(f.marker),
		State:             group(f.keyword),
		Tail:              group(f.tail),
		KeywordOffset:     act.offset + m[2*f.keyword],
		QuoteNestingLevel: quoteDepth(line),
	}
	if act.inline {
		t.RawText = strings.TrimSpace(seg)
		t.Indent = line[:act.offset] + t.Indent
		t.Tail = line[act.offset+len(seg):]
	}
	if f.kind == familyFootnote {
		t.FootnoteMarker = strings.TrimRight(t.ListMarker, ": \t")
		t.QuoteNestingLevel = 0
	}

	p.normalize(&t, group(f.text), seg)
	return t, true
}
