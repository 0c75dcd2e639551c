// Package parser finds keyword-led task lines in note text and extracts their
// structured fields.
//
// A Parser is immutable once built. ParseFile keeps its block state on the
// stack, so one Parser may serve any number of goroutines.
package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/todoseq/internal/apperr"
	"github.com/starford/todoseq/internal/dateparse"
	"github.com/starford/todoseq/internal/filectx"
	"github.com/starford/todoseq/internal/keywords"
	"github.com/starford/todoseq/internal/languages"
	"github.com/starford/todoseq/internal/models"
	"github.com/starford/todoseq/internal/urgency"
)

// DefaultDateLookahead is how many lines after a task are searched for
// SCHEDULED:/DEADLINE: lines.
const DefaultDateLookahead = 8

// Settings toggles which nested regions are searched for tasks.
type Settings struct {
	IncludeCalloutBlocks   bool
	IncludeCodeBlocks      bool
	IncludeCommentBlocks   bool
	LanguageCommentSupport bool
	// DateLookahead <= 0 means DefaultDateLookahead.
	DateLookahead int
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		IncludeCalloutBlocks:   true,
		LanguageCommentSupport: true,
		DateLookahead:          DefaultDateLookahead,
	}
}

// Option configures a Parser.
type Option func(*Parser)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(p *Parser) {
		p.settings = s
	}
}

// WithLanguages sets the registry used to resolve fence language tokens.
func WithLanguages(r languages.Resolver) Option {
	return func(p *Parser) {
		p.languages = r
	}
}

// WithDateParser sets the parser for SCHEDULED:/DEADLINE: payloads. nil
// disables date extraction.
func WithDateParser(d dateparse.Parser) Option {
	return func(p *Parser) {
		p.dates = d
	}
}

// WithUrgency scores incomplete tasks with s using coeffs.
func WithUrgency(s urgency.Scorer, coeffs urgency.Coefficients) Option {
	return func(p *Parser) {
		p.scorer = s
		p.coeffs = coeffs
	}
}

// WithFileContext sets the resolver for the file handle given to ParseFile.
func WithFileContext(r filectx.Resolver) Option {
	return func(p *Parser) {
		p.files = r
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

// WithCache shares a compiled-pattern cache between parsers.
func WithCache(c *Cache) Option {
	return func(p *Parser) {
		p.cache = c
	}
}

// Parser extracts tasks from note text.
type Parser struct {
	keywords  *keywords.Set
	settings  Settings
	languages languages.Resolver
	dates     dateparse.Parser
	scorer    urgency.Scorer
	coeffs    urgency.Coefficients
	files     filectx.Resolver
	logger    *slog.Logger
	cache     *Cache

	standard *family
	footnote *family
}

// New builds a Parser for ks. The standard and footnote patterns are compiled
// up front; code patterns are compiled on first use per language.
func New(ks *keywords.Set, opts ...Option) (*Parser, error) {
	if ks == nil {
		return nil, fmt.Errorf("parser: new: keyword set is required: %w", apperr.ErrInvalidInput)
	}
	p := &Parser{
		keywords:  ks,
		settings:  DefaultSettings(),
		languages: languages.Default(),
		dates:     dateparse.Stamp{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.settings.DateLookahead <= 0 {
		p.settings.DateLookahead = DefaultDateLookahead
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.cache == nil {
		p.cache = NewCache()
	}

	var err error
	p.standard, err = p.cache.load(cacheKey{kind: familyStandard, keywords: ks.Version()}, func() (*family, error) {
		return buildStandard(ks)
	})
	if err != nil {
		return nil, fmt.Errorf("parser: new: %w", err)
	}
	p.footnote, err = p.cache.load(cacheKey{kind: familyFootnote, keywords: ks.Version()}, func() (*family, error) {
		return buildFootnote(ks)
	})
	if err != nil {
		return nil, fmt.Errorf("parser: new: %w", err)
	}
	return p, nil
}

// Keywords returns the keyword set the parser was built with.
func (p *Parser) Keywords() *keywords.Set {
	return p.keywords
}

// Settings returns the effective settings.
func (p *Parser) Settings() Settings {
	return p.settings
}

// Pattern returns the standard task-line pattern.
func (p *Parser) Pattern() Pair {
	return p.standard.Pair
}

// CodePattern returns the code-comment pattern for a fence language token.
// ok is false when the language is unknown.
func (p *Parser) CodePattern(lang string) (Pair, bool) {
	f, err := p.codeFamily(lang)
	if err != nil || f == nil {
		return Pair{}, false
	}
	return f.Pair, true
}

// ParseFile returns the tasks in text in line order. file is an opaque handle
// forwarded to each task and to the file context resolver.
func (p *Parser) ParseFile(text, path string, file any) []models.Task {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	var (
		st       blockState
		fctx     models.FileContext
		resolved bool
	)
	fileCtx := func() models.FileContext {
		if !resolved {
			resolved = true
			fctx = p.fileContext(file)
		}
		return fctx
	}

	tasks := []models.Task{}
	for i, line := range lines {
		act := p.step(&st, line)
		if act.skip {
			continue
		}
		t, ok := p.extract(act, line, i, path)
		if !ok {
			continue
		}
		p.attachDates(&t, lines, i)
		t.File = file
		if p.scores(t) {
			p.score(&t, fileCtx())
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// ParseLine parses one line with no surrounding block context. It returns nil
// when the line is not a task. Dates are never attached.
func (p *Parser) ParseLine(line string, lineNumber int, path string) *models.Task {
	line = strings.TrimSuffix(line, "\r")
	act, ok := p.inlineComment(line)
	if !ok {
		act = p.lineAction(line)
	}
	if act.skip {
		return nil
	}
	t, ok := p.extract(act, line, lineNumber, path)
	if !ok {
		return nil
	}
	if p.scores(t) {
		p.score(&t, models.FileContext{})
	}
	return &t
}

func (p *Parser) scores(t models.Task) bool {
	return p.scorer != nil && !t.Completed
}

func (p *Parser) score(t *models.Task, ctx models.FileContext) {
	if v, ok := p.scorer.Score(*t, p.coeffs, ctx); ok {
		t.Urgency = &v
	}
}

func (p *Parser) fileContext(file any) models.FileContext {
	if p.files == nil || file == nil {
		return models.FileContext{}
	}
	ctx, ok := p.files.Resolve(file)
	if !ok {
		return models.FileContext{}
	}
	return ctx
}
