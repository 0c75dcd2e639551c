package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/todoseq/internal/taskservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *taskservice.Service, authEnabled bool, token string, sseHandler http.Handler, logger *slog.Logger) chi.Router {
	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Indexed tasks.
	r.Get("/tasks", h.ListTasks)
	r.Get("/tasks/search", h.Search)

	// Live parsing.
	r.Get("/files/*", h.FileTasks)
	r.Post("/parse/line", h.ParseLine)
	r.Post("/parse/text", h.ParseText)

	// Keyword configuration.
	r.Get("/keywords", h.GetKeywords)
	r.Put("/keywords", h.UpdateKeywords)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
