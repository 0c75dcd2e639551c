package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/todoseq/internal/keywords"
	"github.com/starford/todoseq/internal/parser"
	"github.com/starford/todoseq/internal/taskservice"
	"github.com/starford/todoseq/internal/testutil"
)

// testEnv sets up a temp vault, SQLite DB, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*taskservice.Service, http.Handler, string) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*taskservice.Service, http.Handler, string) {
	t.Helper()
	vaultDir, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	svc, err := taskservice.NewService(store, db, func(ks *keywords.Set) (*parser.Parser, error) {
		return parser.New(ks, parser.WithLogger(logger))
	}, keywords.Default(), taskservice.WithLogger(logger))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	router := NewRouter(svc, authEnabled, token, sseHandler, logger)
	return svc, router, vaultDir
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListTasks(t *testing.T) {
	svc, router, vaultDir := testEnv(t, "")
	testutil.WriteNote(t, vaultDir, "a.md", "- [ ] TODO buy milk #errand\n- [x] DONE call mom\n")
	testutil.WriteNote(t, vaultDir, "b.md", "DOING [#A] ship release\n")
	if _, err := svc.Sync(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	w := do(t, router, http.MethodGet, "/tasks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp TaskListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 || len(resp.Tasks) != 3 {
		t.Errorf("total = %d, len = %d, want 3", resp.Total, len(resp.Tasks))
	}

	w = do(t, router, http.MethodGet, "/tasks?completed=false&priority=high", nil)
	resp = TaskListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Tasks[0].Text != "ship release" {
		t.Errorf("filtered = %+v", resp)
	}

	w = do(t, router, http.MethodGet, "/tasks?tag=errand", nil)
	resp = TaskListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Tasks[0].Path != "a.md" {
		t.Errorf("tag filter = %+v", resp)
	}
}

func TestListTasks_BadCompleted(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/tasks?completed=maybe", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	svc, router, vaultDir := testEnv(t, "")
	testutil.WriteNote(t, vaultDir, "s.md", "TODO searchable content here\n")
	_, _ = svc.Sync(context.Background(), false)

	w := do(t, router, http.MethodGet, "/tasks/search?q=searchable", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Path != "s.md" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/tasks/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestFileTasks(t *testing.T) {
	_, router, vaultDir := testEnv(t, "")
	testutil.WriteNote(t, vaultDir, "topics/note.md", "TODO live one\n")

	for _, target := range []string{"/files/topics/note.md", "/files/topics%2Fnote.md"} {
		w := do(t, router, http.MethodGet, target, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s = %d, body = %s", target, w.Code, w.Body.String())
		}
		var resp FileTasksResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Path != "topics/note.md" || len(resp.Tasks) != 1 {
			t.Errorf("%s: resp = %+v", target, resp)
		}
	}
}

func TestFileTasks_NotFound(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/files/nope.md", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestFileTasks_Traversal(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/files/..%2F..%2Fetc%2Fpasswd", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestParseLine(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/parse/line", ParseLineRequest{Line: "- [ ] TODO buy milk #errand", LineNumber: 7, Path: "inbox.md"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var task Task
	_ = json.Unmarshal(w.Body.Bytes(), &task)
	if task.State != "TODO" || task.Line != 7 || task.Text != "buy milk #errand" || task.Path != "inbox.md" {
		t.Errorf("task = %+v", task)
	}

	w = do(t, router, http.MethodPost, "/parse/line", ParseLineRequest{Line: "just text"})
	if strings.TrimSpace(w.Body.String()) != "null" {
		t.Errorf("non-task body = %q, want null", w.Body.String())
	}
}

func TestParseLine_BadBody(t *testing.T) {
	_, router, _ := testEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/parse/line", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestParseText(t *testing.T) {
	_, router, _ := testEnv(t, "")
	text := "TODO outside\n```\nTODO inside code\n```\nDONE finished\n"

	w := do(t, router, http.MethodPost, "/parse/text", ParseTextRequest{Text: text, Path: "x.md"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ParseTextResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Tasks) != 2 || resp.Tasks[1].Line != 4 || !resp.Tasks[1].Completed {
		t.Errorf("tasks = %+v", resp.Tasks)
	}
}

func TestKeywords(t *testing.T) {
	svc, router, vaultDir := testEnv(t, "")
	testutil.WriteNote(t, vaultDir, "k.md", "FIXME later\n")
	_, _ = svc.Sync(context.Background(), false)

	w := do(t, router, http.MethodGet, "/keywords", nil)
	var g KeywordGroups
	_ = json.Unmarshal(w.Body.Bytes(), &g)
	if len(g.Active) != len(keywords.DefaultActive) || len(g.Completed) != len(keywords.DefaultCompleted) {
		t.Errorf("groups = %+v", g)
	}

	w = do(t, router, http.MethodPut, "/keywords", map[string]any{
		"add": []map[string]any{{"keyword": "FIXME"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("put = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/tasks?state=FIXME", nil)
	var resp TaskListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("reindex after keyword change: total = %d, want 1", resp.Total)
	}
}

func TestKeywords_Errors(t *testing.T) {
	_, router, _ := testEnv(t, "")
	tests := []struct {
		name string
		body any
		want int
	}{
		{"invalid keyword", map[string]any{"add": []map[string]any{{"keyword": "(a+)+"}}}, http.StatusBadRequest},
		{"empty change", map[string]any{}, http.StatusBadRequest},
		{"duplicate", map[string]any{"add": []map[string]any{{"keyword": "TODO"}}}, http.StatusConflict},
		{"unknown remove", map[string]any{"remove": []string{"NOPE"}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPut, "/keywords", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret")
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret")

	w := do(t, router, http.MethodGet, "/tasks?access_token=secret", nil)
	if w.Code != http.StatusOK {
		t.Errorf("query token = %d, want 200", w.Code)
	}
	w = do(t, router, http.MethodGet, "/tasks?access_token=nope", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong query token = %d, want 401", w.Code)
	}
	w = do(t, router, http.MethodPost, "/parse/line?access_token=secret", map[string]any{"line": "TODO x"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("query token on POST = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret")
	w := do(t, router, http.MethodGet, "/tasks", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret")
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/keywords", nil)
	if w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", w.Code)
	}
}

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router, _ := testEnvWithSSE(t, true, "secret", blockingSSE)
	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router, _ := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
