package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/todoseq/internal/models"
)

var dateLineRe = regexp.MustCompile(`^([ \t]*)(?:>[ \t]*)?(SCHEDULED|DEADLINE):[ \t]*(.*?)[ \t]*$`)

const (
	kindScheduled = "SCHEDULED"
	kindDeadline  = "DEADLINE"
)

// attachDates scans the lines after lines[idx] for SCHEDULED:/DEADLINE: lines
// indented at least as deep as the task.
func (p *Parser) attachDates(t *models.Task, lines []string, idx int) {
	if p.dates == nil {
		return
	}
	taskIndent := leadingSpace(lines[idx])
	seen := map[string]bool{}

	for j := idx + 1; j < len(lines) && j <= idx+p.settings.DateLookahead; j++ {
		line := lines[j]
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := dateLineRe.FindStringSubmatch(line)
		if m == nil {
			return
		}
		if !strings.HasPrefix(m[1], taskIndent) || seen[m[2]] {
			continue
		}
		seen[m[2]] = true

		d, err := p.dates.ParseDate(m[3])
		if err != nil {
			p.logger.Warn("parser: unparsable date",
				slog.String("path", t.Path),
				slog.Int("line", j),
				slog.String("kind", m[2]),
				slog.String("error", err.Error()))
		} else {
			switch m[2] {
			case kindScheduled:
				t.ScheduledDate = &d
			case kindDeadline:
				t.DeadlineDate = &d
			}
		}
		if seen[kindScheduled] && seen[kindDeadline] {
			return
		}
	}
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
