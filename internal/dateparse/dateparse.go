// Package dateparse parses the date payload of SCHEDULED:/DEADLINE: lines.
package dateparse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrEmpty is returned for a blank literal.
var ErrEmpty = errors.New("dateparse: empty date")

// Parser turns a date literal into a time.
type Parser interface {
	ParseDate(literal string) (time.Time, error)
}

// Org-style stamps: <2024-01-15 Mon 10:30 +1w -2d>, [2024-01-15], 2024-01-15 10:30.
var stampRe = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2})` + // date
		`(?:\s+[^\d\s<>\[\]+.-][^\s<>\[\]]*)?` + // optional day name
		`(?:\s+(\d{1,2}:\d{2})(?:-\d{1,2}:\d{2})?)?` + // optional time or time range
		`(?:\s+(?:\.?\+\+?|-{1,2})\d+[hdwmy])*$`, // repeaters and warning periods
)

// Stamp parses org-mode style timestamps in a fixed location.
type Stamp struct {
	Location *time.Location
}

var _ Parser = Stamp{}

// ParseDate implements Parser.
func (s Stamp) ParseDate(literal string) (time.Time, error) {
	lit := strings.TrimSpace(literal)
	if lit == "" {
		return time.Time{}, ErrEmpty
	}
	if n := len(lit); n >= 2 && ((lit[0] == '<' && lit[n-1] == '>') || (lit[0] == '[' && lit[n-1] == ']')) {
		lit = strings.TrimSpace(lit[1 : n-1])
	}
	m := stampRe.FindStringSubmatch(lit)
	if m == nil {
		return time.Time{}, fmt.Errorf("dateparse: unrecognised date %q", literal)
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	value, layout := m[1], "2006-01-02"
	if m[2] != "" {
		value += " " + m[2]
		layout += " 15:04"
	}
	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("dateparse: %q: %w", literal, err)
	}
	return t, nil
}
