package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/todoseq/internal/models"
)

func TestScan_File(t *testing.T) {
	dir := t.TempDir()
	note := filepath.Join(dir, "2024-03-01.md")
	body := "- [ ] TODO [#A] write report #work\n  SCHEDULED: <2024-03-02>\n- DONE send mail\n"
	if err := os.WriteFile(note, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.Tasks.Urgency.Coefficients = map[string]float64{"priority.high": 6, "daily_note": 1}
	var out bytes.Buffer
	if err := Scan(context.Background(), note, &out, WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(out.Bytes(), &tasks); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(tasks))
	}
	if tasks[0].ScheduledDate == nil || tasks[0].Priority != models.PriorityHigh {
		t.Errorf("first task = %+v", tasks[0])
	}
	if tasks[0].Urgency == nil || *tasks[0].Urgency != 7 {
		t.Errorf("urgency = %v, want 7 (priority + daily note)", tasks[0].Urgency)
	}
	if tasks[1].Urgency != nil {
		t.Error("completed task should not be scored")
	}
}

func TestScan_Directory(t *testing.T) {
	dir := t.TempDir()
	_ = os.MkdirAll(filepath.Join(dir, "sub"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "a.md"), []byte("TODO a\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "sub", "b.md"), []byte("LATER b\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "c.txt"), []byte("TODO c\n"), 0o644)

	var out bytes.Buffer
	if err := Scan(context.Background(), dir, &out, WithConfig(NewDefaultConfig()), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var tasks []models.Task
	_ = json.Unmarshal(out.Bytes(), &tasks)
	if len(tasks) != 2 {
		t.Errorf("tasks = %+v, want 2", tasks)
	}
}

func TestScan_Missing(t *testing.T) {
	err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope.md"), io.Discard, WithConfig(NewDefaultConfig()))
	if err == nil {
		t.Fatal("expected error for missing target")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
