package parser

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/starford/todoseq/internal/keywords"
	"github.com/starford/todoseq/internal/languages"
)

// Building blocks of the task-line patterns. Alternation order inside each
// fragment is significant: the first alternative that yields a match wins.
const (
	plainPrefix        = `[ \t]*`
	quotePrefix        = `[ \t]*(?:>[ \t]*)+(?:\[![\w-]+\][+-]?[ \t]+)?`
	listMarker         = `(?:[-*+]|\d+[.)]|[A-Za-z][.)]|\([A-Za-z0-9]{1,2}\))[ \t]+`
	checkbox           = `\[[ xX]\][ \t]+`
	footnotePrefix     = `\[\^\d+\]:[ \t]+`
	taskText           = `(\S.*?)`
	lineEnd            = `[ \t]*$`
	midCommentFallback = `.*?`
)

// Pair is a compiled task-line pattern. Test is the cheap boolean check and
// Capture extracts groups; they may be the same compiled pattern.
type Pair struct {
	Test    *regexp.Regexp
	Capture *regexp.Regexp
}

// family is a Pair plus the submatch index of each field (0 = absent).
type family struct {
	Pair
	kind    familyKind
	prefix  int
	marker  int
	keyword int
	text    int
	tail    int
}

type familyKind int

const (
	familyStandard familyKind = iota
	familyFootnote
	familyCode
)

func markerGroup() string {
	return `((?:` + listMarker + `)??(?:` + checkbox + `)?)`
}

func compileFamily(kind familyKind, pattern string, f family) (*family, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("parser: compile task pattern: %w", err)
	}
	f.Pair = Pair{Test: re, Capture: re}
	f.kind = kind
	return &f, nil
}

func buildStandard(ks keywords.Classifier) (*family, error) {
	pattern := `^(` + plainPrefix + `|` + quotePrefix + `)?` +
		markerGroup() +
		`(` + keywords.Alternation(ks.Keywords()) + `)[ \t]+` +
		taskText + lineEnd
	return compileFamily(familyStandard, pattern, family{prefix: 1, marker: 2, keyword: 3, text: 4})
}

func buildFootnote(ks keywords.Classifier) (*family, error) {
	pattern := `^(` + footnotePrefix + `)` +
		`(` + keywords.Alternation(ks.Keywords()) + `)[ \t]+` +
		taskText + lineEnd
	return compileFamily(familyFootnote, pattern, family{marker: 1, keyword: 2, text: 3})
}

func buildCode(ks keywords.Classifier, lang languages.Language) (*family, error) {
	var alts []string
	for _, frag := range []string{lang.SingleLine, lang.MultiLineStart} {
		if frag != "" {
			alts = append(alts, `(?:`+frag+`)`)
		}
	}
	mid := lang.MultiLineMid
	if mid == "" {
		mid = midCommentFallback
	}
	alts = append(alts, `(?:`+mid+`)`)

	pattern := `^((?:` + strings.Join(alts, "|") + `)[ \t]*)` +
		markerGroup() +
		`(` + keywords.Alternation(ks.Keywords()) + `)[ \t]+` +
		taskText
	f := family{prefix: 1, marker: 2, keyword: 3, text: 4}
	if lang.MultiLineEnd != "" {
		pattern += `([ \t]*(?:` + lang.MultiLineEnd + `))?`
		f.tail = 5
	}
	pattern += lineEnd
	return compileFamily(familyCode, pattern, f)
}

// BuildRegex composes the standard task-line pattern for ks.
func BuildRegex(ks keywords.Classifier) (Pair, error) {
	f, err := buildStandard(ks)
	if err != nil {
		return Pair{}, err
	}
	return f.Pair, nil
}

// BuildFootnoteRegex composes the footnote-definition task pattern for ks.
func BuildFootnoteRegex(ks keywords.Classifier) (Pair, error) {
	f, err := buildFootnote(ks)
	if err != nil {
		return Pair{}, err
	}
	return f.Pair, nil
}

// BuildCodeRegex composes the code-comment task pattern for one language.
// Capture groups: prefix, list marker, keyword, text and, when the language
// has a multi-line end marker, tail.
func BuildCodeRegex(ks keywords.Classifier, lang languages.Language) (Pair, error) {
	f, err := buildCode(ks, lang)
	if err != nil {
		return Pair{}, err
	}
	return f.Pair, nil
}

type cacheKey struct {
	kind      familyKind
	keywords  uint64
	languages uint64
	lang      string
}

// Cache holds compiled task patterns keyed by keyword-set version and, for
// code patterns, language. Storing an entry for a newer keyword-set version
// drops every entry of older versions. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	version uint64
	entries map[cacheKey]*family
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*family)}
}

// Len reports the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) load(key cacheKey, build func() (*family, error)) (*family, error) {
	c.mu.RLock()
	f, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return f, nil
	}

	f, err := build()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case key.keywords > c.version:
		clear(c.entries)
		c.version = key.keywords
	case key.keywords < c.version:
		// A parser built on a superseded keyword set; serve it uncached.
		return f, nil
	}
	if existing, ok := c.entries[key]; ok {
		return existing, nil
	}
	c.entries[key] = f
	return f, nil
}
