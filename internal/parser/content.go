package parser

import (
	"regexp"
	"slices"
	"strings"

	"github.com/starford/todoseq/internal/models"
)

var (
	footnoteRefRe = regexp.MustCompile(`\[\^\d+\]`)
	// An embed anchor may be followed only by priority and tag tokens.
	embedRe     = regexp.MustCompile(`(?:^|[ \t])(\^[A-Za-z0-9-]+)((?:[ \t]+(?:\[#[ABC]\]|#[^\s#]+))*)[ \t]*$`)
	priorityRe  = regexp.MustCompile(`\[#([ABC])\]`)
	tagRe       = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_][\p{L}\p{N}_/-]*)`)
	spacesRe    = regexp.MustCompile(`\s+`)
	checkboxRe  = regexp.MustCompile(`^([ \t]*>?[ \t]*)((?:[-*+]|\d+[.)])[ \t]+\[([ xX])\][ \t]+)`)
	priorityMap = map[string]models.Priority{
		"A": models.PriorityHigh,
		"B": models.PriorityMed,
		"C": models.PriorityLow,
	}
)

// normalize fills the content fields of t from the captured task text. seg is
// the matched line segment, checked for a markdown checkbox last.
func (p *Parser) normalize(t *models.Task, text, seg string) {
	original := text

	t.FootnoteReference, text = footnoteRef(text)
	t.EmbedReference, text = embedRef(text)
	t.Priority, text = priority(text)
	t.Tags = tags(original)
	t.Text = collapse(text)

	if m := checkboxRe.FindStringSubmatch(seg); m != nil {
		t.ListMarker = m[2]
		t.Completed = m[3] != " "
		return
	}
	t.Completed = p.keywords.IsCompleted(t.State)
}

// footnoteRef returns the first [^n] token and text with every one removed.
func footnoteRef(text string) (string, string) {
	ref := footnoteRefRe.FindString(text)
	if ref == "" {
		return "", text
	}
	return ref, footnoteRefRe.ReplaceAllString(text, "")
}

// embedRef returns a trailing ^anchor. Tags after the anchor go with it;
// priority tokens stay in the text for the next step.
func embedRef(text string) (string, string) {
	m := embedRe.FindStringSubmatchIndex(text)
	if m == nil {
		return "", text
	}
	ref := text[m[2]:m[3]]
	rest := text[:m[0]]
	if kept := priorityRe.FindAllString(text[m[4]:m[5]], -1); len(kept) > 0 {
		rest += " " + strings.Join(kept, " ")
	}
	return ref, rest
}

// priority maps the first [#A]/[#B]/[#C] token and removes it.
func priority(text string) (models.Priority, string) {
	m := priorityRe.FindStringSubmatchIndex(text)
	if m == nil {
		return models.PriorityNone, text
	}
	level := priorityMap[text[m[2]:m[3]]]
	text = text[:m[0]] + text[m[1]:]
	text = strings.TrimLeft(strings.ReplaceAll(text, "  ", " "), " \t")
	return level, text
}

// tags collects #word tokens, skipping the priority letters, first
// occurrence order, no duplicates. The result is never nil.
func tags(text string) []string {
	out := []string{}
	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		tag := m[1]
		if tag == "A" || tag == "B" || tag == "C" {
			continue
		}
		if !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

func collapse(s string) string {
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}
