package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/todoseq/internal/index"
	"github.com/starford/todoseq/internal/models"
	"github.com/starford/todoseq/internal/taskservice"
)

const maxBody = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc    *taskservice.Service
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *taskservice.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// filePath extracts the note path from the URL (everything after /api/files/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// taskFilter reads TaskFilter fields from the query string.
func taskFilter(q url.Values) (index.TaskFilter, bool) {
	f := index.TaskFilter{
		State:    q.Get("state"),
		Priority: models.Priority(q.Get("priority")),
		Tag:      q.Get("tag"),
		Path:     q.Get("path"),
		Sort:     q.Get("sort"),
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, false
		}
		f.Completed = &b
	}
	return f, true
}

// ListTasks handles GET /api/tasks.
//
//	@Summary		List indexed tasks with filtering and pagination
//	@Tags			tasks
//	@Produce		json
//	@Param			state		query		string	false	"Filter by keyword"
//	@Param			completed	query		bool	false	"Filter by completion"
//	@Param			priority	query		string	false	"Filter by priority"	Enums(high, med, low)
//	@Param			tag			query		string	false	"Filter by tag"
//	@Param			path		query		string	false	"Filter by file"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			sort		query		string	false	"Sort field"	Enums(path, urgency, scheduled, deadline)
//	@Success		200			{object}	TaskListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	f, ok := taskFilter(r.URL.Query())
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("completed must be a boolean"))
		return
	}
	tasks, total, err := h.svc.ListTasks(r.Context(), f)
	if err != nil {
		writeError(w, h.logger, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks, Total: total})
}

// Search handles GET /api/tasks/search.
//
//	@Summary		Full-text search across task text and tags
//	@Tags			tasks
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, h.logger, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// FileTasks handles GET /api/files/*.
//
//	@Summary		Parse one vault file and return its tasks
//	@Tags			files
//	@Produce		json
//	@Param			path	path		string	true	"File path"
//	@Success		200		{object}	FileTasksResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *Handler) FileTasks(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	tasks, err := h.svc.FileTasks(r.Context(), path)
	if err != nil {
		writeError(w, h.logger, "file tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, FileTasksResponse{Path: path, Tasks: tasks})
}

// ParseLine handles POST /api/parse/line.
//
//	@Summary		Parse a single line without block context
//	@Tags			parse
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParseLineRequest	true	"Line to parse"
//	@Success		200		{object}	Task	"null when the line is not a task"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/parse/line [post]
func (h *Handler) ParseLine(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req ParseLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.LineNumber < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("line_number must not be negative"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ParseLine(req.Line, req.LineNumber, req.Path))
}

// ParseText handles POST /api/parse/text.
//
//	@Summary		Parse note text and return its tasks
//	@Tags			parse
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParseTextRequest	true	"Text to parse"
//	@Success		200		{object}	ParseTextResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/parse/text [post]
func (h *Handler) ParseText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req ParseTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	writeJSON(w, http.StatusOK, ParseTextResponse{Tasks: h.svc.ParseText(req.Text, req.Path)})
}

// GetKeywords handles GET /api/keywords.
//
//	@Summary		Get the active keyword groups
//	@Tags			keywords
//	@Produce		json
//	@Success		200	{object}	KeywordGroups
//	@Security		BearerAuth
//	@Router			/keywords [get]
func (h *Handler) GetKeywords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Keywords())
}

// UpdateKeywords handles PUT /api/keywords.
//
//	@Summary		Add or remove keywords and reindex the vault
//	@Tags			keywords
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateKeywordsRequest	true	"Keyword edits"
//	@Success		200		{object}	KeywordGroups
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/keywords [put]
func (h *Handler) UpdateKeywords(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req UpdateKeywordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Add) == 0 && len(req.Remove) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("add or remove is required"))
		return
	}
	groups, err := h.svc.UpdateKeywords(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "update keywords", err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}
