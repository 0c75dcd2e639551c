// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes todoseq task tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/todoseq/internal/index"
	"github.com/starford/todoseq/internal/models"
	"github.com/starford/todoseq/internal/taskservice"
)

// SyntaxURI is the resource URI of the task syntax contract.
const SyntaxURI = "todoseq://task-syntax"

// Server wraps the MCP server with todoseq tools.
type Server struct {
	mcp *server.MCPServer
	svc *taskservice.Service
}

// New creates a new MCP server with all todoseq tools registered.
func New(svc *taskservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"todoseq",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List indexed tasks, optionally filtered. Returns JSON {tasks, total}."),
		mcp.WithString("state", mcp.Description("Keyword to filter by (e.g. TODO, DONE)")),
		mcp.WithString("tag", mcp.Description("Tag to filter by, without the leading #")),
		mcp.WithString("path", mcp.Description("Only tasks of this file")),
		mcp.WithString("priority", mcp.Description("Priority to filter by"), mcp.Enum("high", "med", "low")),
		mcp.WithBoolean("completed", mcp.Description("Filter by completion")),
		mcp.WithString("sort", mcp.Description("Sort order"), mcp.Enum(index.SortPath, index.SortUrgency, index.SortScheduled, index.SortDeadline)),
		mcp.WithNumber("limit", mcp.Description("Page size (default 100)")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("search_tasks",
		mcp.WithDescription("Full-text search through task text and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchTasks)

	s.mcp.AddTool(mcp.NewTool("parse_line",
		mcp.WithDescription("Parse a single line and return the task it contains, or null. "+
			"Block context (code fences, comments) is not considered."),
		mcp.WithString("line", mcp.Required(), mcp.Description("The line to parse")),
		mcp.WithString("path", mcp.Description("File path recorded on the task")),
	), s.parseLine)

	s.mcp.AddTool(mcp.NewTool("parse_text",
		mcp.WithDescription("Parse Markdown note text and return every task in line order."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text")),
		mcp.WithString("path", mcp.Description("File path recorded on the tasks")),
	), s.parseText)

	s.mcp.AddTool(mcp.NewTool("get_keywords",
		mcp.WithDescription("Returns the active and completed task keywords."),
	), s.getKeywords)

	s.mcp.AddTool(mcp.NewTool("get_task_syntax",
		mcp.WithDescription("Returns the task line syntax todoseq recognises. "+
			"Read it before writing tasks into notes."),
	), s.getTaskSyntax)

	// Resource: task syntax contract.
	s.mcp.AddResource(
		mcp.NewResource(SyntaxURI, "Task Syntax",
			mcp.WithResourceDescription("Task line syntax recognised by todoseq."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTaskSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := index.TaskFilter{
		State:    req.GetString("state", ""),
		Tag:      req.GetString("tag", ""),
		Path:     req.GetString("path", ""),
		Priority: models.Priority(req.GetString("priority", "")),
		Sort:     req.GetString("sort", ""),
		Limit:    req.GetInt("limit", 0),
	}
	if args := req.GetArguments(); args != nil {
		if _, ok := args["completed"]; ok {
			c := req.GetBool("completed", false)
			f.Completed = &c
		}
	}
	tasks, total, err := s.svc.ListTasks(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"tasks": tasks, "total": total})
}

func (s *Server) searchTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) parseLine(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := req.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.ParseLine(line, 0, req.GetString("path", "")))
}

func (s *Server) parseText(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tasks := s.svc.ParseText(text, req.GetString("path", ""))
	if len(tasks) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no tasks found in %d bytes of text", len(text))), nil
	}
	return jsonResult(tasks)
}

func (s *Server) getKeywords(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Keywords())
}

func (s *Server) getTaskSyntax(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TaskSyntax), nil
}

func (s *Server) readTaskSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SyntaxURI,
			MIMEType: "text/markdown",
			Text:     TaskSyntax,
		},
	}, nil
}
