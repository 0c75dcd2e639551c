package api

import (
	"github.com/starford/todoseq/internal/index"
	"github.com/starford/todoseq/internal/models"
	"github.com/starford/todoseq/internal/taskservice"
)

// Task is the task response type (aliased from the domain layer).
type Task = models.Task

// TaskListResponse wraps paginated task listings.
type TaskListResponse struct {
	Tasks []Task `json:"tasks" validate:"required"`
	Total int    `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// FileTasksResponse lists the tasks of one file.
type FileTasksResponse struct {
	Path  string `json:"path" example:"projects/home.md" validate:"required"`
	Tasks []Task `json:"tasks" validate:"required"`
}

// ParseLineRequest is the request body for parsing one line.
type ParseLineRequest struct {
	Line       string `json:"line" example:"- [ ] TODO buy milk #errand" validate:"required"`
	LineNumber int    `json:"line_number" example:"0"`
	Path       string `json:"path" example:"inbox.md"`
}

// ParseTextRequest is the request body for parsing note text.
type ParseTextRequest struct {
	Text string `json:"text" example:"TODO a\nDONE b" validate:"required"`
	Path string `json:"path" example:"inbox.md"`
}

// ParseTextResponse wraps the tasks found in posted text.
type ParseTextResponse struct {
	Tasks []Task `json:"tasks" validate:"required"`
}

// KeywordGroups is the keyword configuration (aliased from the domain layer).
type KeywordGroups = taskservice.KeywordGroups

// UpdateKeywordsRequest is the request body for editing keywords.
type UpdateKeywordsRequest = taskservice.KeywordChange
