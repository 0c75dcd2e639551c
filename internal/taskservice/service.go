// Package taskservice coordinates the task parser, vault storage and the task
// index. It owns the current parser and swaps it when keywords change.
package taskservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/starford/todoseq/internal/apperr"
	"github.com/starford/todoseq/internal/filectx"
	"github.com/starford/todoseq/internal/index"
	"github.com/starford/todoseq/internal/keywords"
	"github.com/starford/todoseq/internal/models"
	"github.com/starford/todoseq/internal/parser"
	"github.com/starford/todoseq/internal/storage"
)

// Factory builds a parser for a keyword set. The service calls it once at
// start and again after every keyword change.
type Factory func(ks *keywords.Set) (*parser.Parser, error)

// KeywordGroups is the externally visible keyword configuration.
type KeywordGroups struct {
	Active    []string `json:"active"`
	Completed []string `json:"completed"`
}

// KeywordAdd adds one keyword to a group.
type KeywordAdd struct {
	Keyword   string `json:"keyword"`
	Completed bool   `json:"completed"`
}

// KeywordChange is a batch of keyword edits applied atomically.
type KeywordChange struct {
	Add    []KeywordAdd `json:"add"`
	Remove []string     `json:"remove"`
}

// Service coordinates storage, parser and index operations.
type Service struct {
	store   storage.Provider
	db      *index.DB
	build   Factory
	workers int
	logger  *slog.Logger

	parser atomic.Pointer[parser.Parser]
	// mu serialises keyword updates.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers bounds concurrent parsing during sync.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService builds the initial parser from ks.
func NewService(store storage.Provider, db *index.DB, build Factory, ks *keywords.Set, opts ...Option) (*Service, error) {
	s := &Service{store: store, db: db, build: build, logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(s)
	}
	p, err := build(ks)
	if err != nil {
		return nil, fmt.Errorf("taskservice: build parser: %w", err)
	}
	s.parser.Store(p)
	return s, nil
}

// Parser returns the parser currently in use.
func (s *Service) Parser() *parser.Parser {
	return s.parser.Load()
}

// Parse extracts the tasks of one vault file. It satisfies index.ParseFunc.
func (s *Service) Parse(path string, data []byte) []models.Task {
	return s.Parser().ParseFile(string(data), path, filectx.File{Path: path, Content: data})
}

// Sync brings the index up to date with the vault. force reparses every file.
func (s *Service) Sync(ctx context.Context, force bool) (index.SyncStats, error) {
	stats, err := index.Sync(ctx, s.db, s.store, s.Parse, index.SyncOptions{Workers: s.workers, Force: force}, s.logger)
	if err != nil {
		return stats, fmt.Errorf("taskservice: sync: %w", err)
	}
	s.logger.Info("sync complete",
		slog.Int("indexed", stats.Indexed),
		slog.Int("removed", stats.Removed),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

// Watch reindexes files as they change under root until ctx is cancelled.
func (s *Service) Watch(ctx context.Context, root string, cb index.EventCallback) error {
	return index.Watch(ctx, s.db, s.store, s.Parse, root, s.logger, cb)
}

// ListTasks returns one page of indexed tasks.
func (s *Service) ListTasks(_ context.Context, f index.TaskFilter) ([]models.Task, int, error) {
	return s.db.ListTasks(f)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("taskservice: empty query: %w", apperr.ErrInvalidInput)
	}
	return s.db.Search(query, limit)
}

// FileTasks parses one vault file live, bypassing the index.
func (s *Service) FileTasks(_ context.Context, path string) ([]models.Task, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	return s.Parse(path, data), nil
}

// ParseLine parses a single line without block context.
func (s *Service) ParseLine(line string, lineNumber int, path string) *models.Task {
	return s.Parser().ParseLine(line, lineNumber, path)
}

// ParseText parses ad-hoc note text as if it were the file at path.
func (s *Service) ParseText(text, path string) []models.Task {
	return s.Parser().ParseFile(text, path, filectx.File{Path: path, Content: []byte(text)})
}

// Keywords returns the active keyword groups.
func (s *Service) Keywords() KeywordGroups {
	return groups(s.Parser().Keywords())
}

// UpdateKeywords applies ch to the current keyword set, swaps in a parser
// built from the result and reindexes the vault. On any error nothing changes.
func (s *Service) UpdateKeywords(ctx context.Context, ch KeywordChange) (KeywordGroups, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ks := s.Parser().Keywords()
	for _, r := range ch.Remove {
		if !ks.Contains(r) {
			return KeywordGroups{}, fmt.Errorf("taskservice: remove keyword %q: %w", r, apperr.ErrNotFound)
		}
		next, err := ks.Without(r)
		if err != nil {
			if errors.Is(err, keywords.ErrLastKeyword) {
				return KeywordGroups{}, fmt.Errorf("taskservice: %w: %w", apperr.ErrInvalidInput, err)
			}
			return KeywordGroups{}, fmt.Errorf("taskservice: remove keyword %q: %w", r, err)
		}
		ks = next
	}
	for _, a := range ch.Add {
		if ks.Contains(a.Keyword) && ks.IsCompleted(a.Keyword) == a.Completed {
			return KeywordGroups{}, fmt.Errorf("taskservice: add keyword %q: %w", a.Keyword, apperr.ErrAlreadyExists)
		}
		next, err := ks.With(a.Keyword, a.Completed)
		if err != nil {
			return KeywordGroups{}, fmt.Errorf("taskservice: add keyword: %w", err)
		}
		ks = next
	}

	p, err := s.build(ks)
	if err != nil {
		return KeywordGroups{}, fmt.Errorf("taskservice: rebuild parser: %w", err)
	}
	s.parser.Store(p)
	s.logger.Info("keywords updated", slog.Int("count", len(ks.Keywords())))

	if _, err := s.Sync(ctx, true); err != nil {
		return groups(ks), err
	}
	return groups(ks), nil
}

func groups(ks *keywords.Set) KeywordGroups {
	g := KeywordGroups{Active: ks.Active(), Completed: ks.Completed()}
	if g.Active == nil {
		g.Active = []string{}
	}
	if g.Completed == nil {
		g.Completed = []string{}
	}
	return g
}
