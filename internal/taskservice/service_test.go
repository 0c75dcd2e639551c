package taskservice

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/starford/todoseq/internal/apperr"
	"github.com/starford/todoseq/internal/index"
	"github.com/starford/todoseq/internal/keywords"
	"github.com/starford/todoseq/internal/parser"
	"github.com/starford/todoseq/internal/testutil"
)

func newService(t *testing.T) (string, *Service) {
	t.Helper()
	vaultDir, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	build := func(ks *keywords.Set) (*parser.Parser, error) { return parser.New(ks) }
	svc, err := NewService(store, db, build, keywords.Default(), WithWorkers(2))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return vaultDir, svc
}

func TestSyncAndList(t *testing.T) {
	vaultDir, svc := newService(t)
	testutil.WriteNote(t, vaultDir, "a.md", "TODO one\nDONE two\n")
	testutil.WriteNote(t, vaultDir, "b/c.md", "- [ ] LATER three #home\n")

	stats, err := svc.Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.Indexed != 2 {
		t.Errorf("indexed = %d, want 2", stats.Indexed)
	}

	tasks, total, err := svc.ListTasks(context.Background(), index.TaskFilter{Tag: "home"})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if total != 1 || tasks[0].Path != "b/c.md" || tasks[0].State != "LATER" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestFileTasks(t *testing.T) {
	vaultDir, svc := newService(t)
	testutil.WriteNote(t, vaultDir, "live.md", "TODO live\n")

	tasks, err := svc.FileTasks(context.Background(), "live.md")
	if err != nil {
		t.Fatalf("FileTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Text != "live" {
		t.Errorf("tasks = %+v", tasks)
	}

	_, err = svc.FileTasks(context.Background(), "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing file error = %v, want ErrNotFound", err)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, svc := newService(t)
	_, err := svc.Search(context.Background(), "", 10)
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestParseLineAndText(t *testing.T) {
	_, svc := newService(t)

	if got := svc.ParseLine("- DOING write tests", 4, "x.md"); got == nil || got.State != "DOING" || got.Line != 4 {
		t.Errorf("ParseLine = %+v", got)
	}
	if got := svc.ParseLine("plain text", 0, "x.md"); got != nil {
		t.Errorf("ParseLine(non-task) = %+v, want nil", got)
	}

	tasks := svc.ParseText("TODO a\nSCHEDULED: <2024-03-01>\n", "x.md")
	if len(tasks) != 1 || tasks[0].ScheduledDate == nil {
		t.Errorf("ParseText = %+v", tasks)
	}
}

func TestUpdateKeywords(t *testing.T) {
	vaultDir, svc := newService(t)
	testutil.WriteNote(t, vaultDir, "a.md", "FIXME broken\nTODO fine\n")
	ctx := context.Background()
	_, _ = svc.Sync(ctx, false)

	if _, total, _ := svc.ListTasks(ctx, index.TaskFilter{}); total != 1 {
		t.Fatalf("precondition: total = %d, want 1", total)
	}

	g, err := svc.UpdateKeywords(ctx, KeywordChange{Add: []KeywordAdd{{Keyword: "FIXME"}}})
	if err != nil {
		t.Fatalf("UpdateKeywords: %v", err)
	}
	if !slices.Contains(g.Active, "FIXME") {
		t.Errorf("active = %v, want FIXME", g.Active)
	}
	if _, total, _ := svc.ListTasks(ctx, index.TaskFilter{}); total != 2 {
		t.Errorf("after reindex total = %d, want 2", total)
	}
	if !svc.Parser().Keywords().Contains("FIXME") {
		t.Error("parser not swapped")
	}
}

func TestUpdateKeywords_Errors(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()
	before := svc.Parser()

	tests := []struct {
		name string
		ch   KeywordChange
		want error
	}{
		{"duplicate", KeywordChange{Add: []KeywordAdd{{Keyword: "TODO"}}}, apperr.ErrAlreadyExists},
		{"invalid", KeywordChange{Add: []KeywordAdd{{Keyword: "(a+)+"}}}, apperr.ErrInvalidKeyword},
		{"empty", KeywordChange{Add: []KeywordAdd{{Keyword: ""}}}, apperr.ErrInvalidKeyword},
		{"unknown remove", KeywordChange{Remove: []string{"NOPE"}}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateKeywords(ctx, tt.ch)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if svc.Parser() != before {
				t.Error("parser swapped on failed update")
			}
		})
	}
}

func TestUpdateKeywords_MoveBetweenGroups(t *testing.T) {
	_, svc := newService(t)
	g, err := svc.UpdateKeywords(context.Background(), KeywordChange{Add: []KeywordAdd{{Keyword: "WAIT", Completed: true}}})
	if err != nil {
		t.Fatalf("UpdateKeywords: %v", err)
	}
	if slices.Contains(g.Active, "WAIT") || !slices.Contains(g.Completed, "WAIT") {
		t.Errorf("groups = %+v", g)
	}
}

func TestUpdateKeywords_LastKeyword(t *testing.T) {
	_, store := testutil.TestVault(t)
	ks, err := keywords.New([]string{"TODO"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := NewService(store, testutil.TestDB(t), func(ks *keywords.Set) (*parser.Parser, error) {
		return parser.New(ks)
	}, ks)
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.UpdateKeywords(context.Background(), KeywordChange{Remove: []string{"TODO"}})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
