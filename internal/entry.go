// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/todoseq/internal/api"
	"github.com/starford/todoseq/internal/dateparse"
	"github.com/starford/todoseq/internal/filectx"
	"github.com/starford/todoseq/internal/index"
	"github.com/starford/todoseq/internal/keywords"
	"github.com/starford/todoseq/internal/mcpserver"
	"github.com/starford/todoseq/internal/models"
	"github.com/starford/todoseq/internal/parser"
	"github.com/starford/todoseq/internal/sse"
	"github.com/starford/todoseq/internal/storage"
	"github.com/starford/todoseq/internal/taskservice"
	"github.com/starford/todoseq/internal/urgency"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
}

// parserFactory returns a Factory that builds parsers sharing one regex cache
// and the configured collaborators.
func parserFactory(cfg *Config, logger *slog.Logger) taskservice.Factory {
	loc := cfg.Tasks.Location()
	opts := []parser.Option{
		parser.WithSettings(cfg.Tasks.Settings()),
		parser.WithDateParser(dateparse.Stamp{Location: loc}),
		parser.WithFileContext(filectx.DailyNotes{
			Folder:   cfg.Vault.DailyNotes.Folder,
			Layout:   cfg.Vault.DailyNotes.Format,
			Location: loc,
		}),
		parser.WithUrgency(urgency.Linear{}, urgency.Coefficients(cfg.Tasks.Urgency.Coefficients)),
		parser.WithLogger(logger),
		parser.WithCache(parser.NewCache()),
	}
	return func(ks *keywords.Set) (*parser.Parser, error) {
		return parser.New(ks, opts...)
	}
}

// openService opens storage and the index and builds the task service. The
// caller closes the returned DB.
func openService(cfg *Config, logger *slog.Logger) (*storage.FS, *index.DB, *taskservice.Service, error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init index: %w", err)
	}
	ks, err := cfg.Tasks.Keywords.Set()
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("init keywords: %w", err)
	}
	svc, err := taskservice.NewService(store, db, parserFactory(cfg, logger), ks,
		taskservice.WithWorkers(cfg.Index.Workers),
		taskservice.WithLogger(logger),
	)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return store, db, svc, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, db, svc, err := openService(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Run initial sync.
	if _, err := svc.Sync(ctx, false); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, logger)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		if err := svc.Watch(gCtx, store.Root(), broker.PublishTaskEvent); err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Stop the watcher too when shutdown came from a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP syncs the index and serves the MCP tools over stdio until stdin
// closes. Logs go to the configured log output, which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger()

	_, db, svc, err := openService(app.config, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := svc.Sync(ctx, false); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

// Scan parses target, a note file or a directory of notes, and writes the
// tasks found as a JSON array to out. It does not touch the index.
func Scan(_ context.Context, target string, out io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	ks, err := cfg.Tasks.Keywords.Set()
	if err != nil {
		return fmt.Errorf("init keywords: %w", err)
	}
	p, err := parserFactory(cfg, logger)(ks)
	if err != nil {
		return err
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	tasks := []models.Task{}
	if info.IsDir() {
		store, err := storage.NewFS(target)
		if err != nil {
			return err
		}
		metas, err := store.List("")
		if err != nil {
			return fmt.Errorf("scan: list: %w", err)
		}
		for _, m := range metas {
			data, err := store.Read(m.Path)
			if err != nil {
				logger.Warn("scan: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				continue
			}
			tasks = append(tasks, p.ParseFile(string(data), m.Path, filectx.File{Path: m.Path, Content: data})...)
		}
	} else {
		data, err := os.ReadFile(target)
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		tasks = p.ParseFile(string(data), target, filectx.File{Path: target, Content: data})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}
