package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dori/tasktree/internal/app"
	"github.com/dori/tasktree/internal/model"
	"github.com/dori/tasktree/internal/priority"
)

// setupEnv points config and data at a temp dir
func setupEnv(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("TASKTREE_DATA_DIR", filepath.Join(tmp, "data"))
	t.Setenv("TASKTREE_OWNER", "tester")
	t.Setenv("TASKTREE_NOTIFY_ENABLED", "false")
	return tmp
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := execute(t, stdin, args...)
	if err != nil {
		t.Fatalf("tasktree %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func csvRow(name string, importance, complexity int, parent, tags string) string {
	return fmt.Sprintf(",%s,,,%d,%d,,,,,,,%s,%s,\n", name, importance, complexity, parent, tags)
}

// idOf finds the short ID printed next to name by list --plain
func idOf(t *testing.T, listing, name string) string {
	t.Helper()
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 5 && fields[len(fields)-1] == name {
			return fields[2]
		}
	}
	t.Fatalf("%q not found in listing:\n%s", name, listing)
	return ""
}

func assertOrder(t *testing.T, out string, names ...string) {
	t.Helper()
	last := -1
	for _, name := range names {
		i := strings.Index(out, name)
		if i < 0 {
			t.Fatalf("%q missing from output:\n%s", name, out)
		}
		if i < last {
			t.Fatalf("%q out of order in output:\n%s", name, out)
		}
		last = i
	}
}

func TestImportListDoneExport(t *testing.T) {
	setupEnv(t)

	input := csvRow("Polish", 20, 2, "launch", "ship") + // parent appears later
		csvRow("Launch", 50, 1, "", "") +
		csvRow("Errand", 10, 3, "", "") +
		",,,,10,2,,,,,,,,,\n"

	out := mustExecute(t, input, "import", "-")
	if !strings.Contains(out, "Imported 3 task(s)") {
		t.Errorf("unexpected import output:\n%s", out)
	}
	if !strings.Contains(out, "1 row(s) rejected") || !strings.Contains(out, "line 4:") {
		t.Errorf("rejected row should be reported with its line:\n%s", out)
	}

	listing := mustExecute(t, "", "list", "--plain")
	assertOrder(t, listing, "== Collected (1)", "Launch", "Polish", "== No date (1)", "Errand")
	if !strings.Contains(listing, "  [ ] ") {
		t.Errorf("subtask should be indented:\n%s", listing)
	}
	if !strings.Contains(listing, "@ship") {
		t.Errorf("tags should be listed:\n%s", listing)
	}

	out = mustExecute(t, "", "done", idOf(t, listing, "Errand"))
	if !strings.Contains(out, "Completed: Errand") {
		t.Errorf("unexpected done output: %s", out)
	}

	if listing := mustExecute(t, "", "list", "--plain"); strings.Contains(listing, "Errand") {
		t.Errorf("completed task should be hidden:\n%s", listing)
	}
	if listing := mustExecute(t, "", "list", "--plain", "--all"); !strings.Contains(listing, "[x]") {
		t.Errorf("--all should show completed tasks:\n%s", listing)
	}

	csv := mustExecute(t, "", "export")
	if !strings.HasPrefix(csv, "ID,Name,") {
		t.Errorf("export should start with the header:\n%s", csv)
	}
	assertOrder(t, csv, "Launch", "Polish")
	if strings.Contains(csv, "Errand") {
		t.Error("export should skip completed tasks by default")
	}
	if csv := mustExecute(t, "", "export", "--all"); !strings.Contains(csv, "Errand") {
		t.Error("export --all should include completed tasks")
	}
}

func TestImportFromFileAndExportToFile(t *testing.T) {
	tmp := setupEnv(t)

	in := filepath.Join(tmp, "in.csv")
	if err := os.WriteFile(in, []byte(csvRow("Only", 10, 1, "", "")), 0644); err != nil {
		t.Fatal(err)
	}
	mustExecute(t, "", "import", in)

	out := filepath.Join(tmp, "out.csv")
	mustExecute(t, "", "export", out)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("export file not written: %v", err)
	}
	if !strings.Contains(string(data), ",Only,") {
		t.Errorf("unexpected export:\n%s", data)
	}

	if _, err := execute(t, "", "import", filepath.Join(tmp, "missing.csv")); err == nil {
		t.Error("a missing import file should fail")
	}
}

func TestAdd(t *testing.T) {
	setupEnv(t)

	out := mustExecute(t, "", "add", "Launch", "!50", "~1")
	if !strings.Contains(out, "Created: Launch") || !strings.Contains(out, "500 points") {
		t.Errorf("unexpected add output: %s", out)
	}

	out = mustExecute(t, "", "add", "Write copy ^launch @web due:2030-01-02")
	if !strings.Contains(out, "Parent: launch") || !strings.Contains(out, "Due: 2030-01-02") {
		t.Errorf("unexpected add output: %s", out)
	}

	listing := mustExecute(t, "", "list", "--plain", "--tag", "@web")
	assertOrder(t, listing, "Launch", "Write copy")
	if !strings.Contains(listing, "due:2030-01-02") {
		t.Errorf("due date should be listed:\n%s", listing)
	}

	_, err := execute(t, "", "add", "Orphan ^Nowhere")
	if !errors.Is(err, app.ErrParentNotFound) {
		t.Errorf("expected ErrParentNotFound, got %v", err)
	}
}

func TestDoneUnknownTask(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "", "done", "deadbeef")
	if !errors.Is(err, app.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestRemindDryRun(t *testing.T) {
	setupEnv(t)

	today := time.Now().Format(model.DateLayout)
	mustExecute(t, "", "add", "Pay rent due:"+today)

	out := mustExecute(t, "", "remind", "--dry-run")
	if !strings.Contains(out, "0 overdue, 1 today, 0 tomorrow") {
		t.Errorf("unexpected remind output: %s", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	tmp := setupEnv(t)

	out := mustExecute(t, "", "config", "init")
	path := filepath.Join(tmp, "config", "tasktree", "config.yaml")
	if !strings.Contains(out, path) {
		t.Errorf("init should report %s, got %s", path, out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	if _, err := execute(t, "", "config", "init"); err == nil {
		t.Error("init should refuse to overwrite without --force")
	}
	mustExecute(t, "", "config", "init", "--force")

	out = mustExecute(t, "", "config", "show")
	if !strings.Contains(out, "owner: tester") {
		t.Errorf("environment override should show up:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	if out := mustExecute(t, "", "version"); out != "tasktree test\n" {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestRenderPlain(t *testing.T) {
	due := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	pid := "parent-0001"
	sections := []priority.Section{
		{Category: priority.Overdue, Tasks: []model.Task{{
			ID: pid, Name: "Taxes", Points: 250, DueDate: &due,
			Tags: []model.Tag{{Name: "home"}},
			Subtasks: []model.Task{
				{ID: "child-0001", Name: "Receipts", Points: 33, ParentID: &pid, Completed: true},
			},
		}}},
		{Category: priority.NoDate, Tasks: []model.Task{{ID: "x", Name: "Someday", Points: 5}}},
	}

	var buf bytes.Buffer
	sectionRenderer{plain: true}.render(&buf, sections)

	want := "== Overdue (1)\n" +
		"[ ] parent-0  250  Taxes  due:2024-06-14 @home\n" +
		"  [x] child-00   33  Receipts\n" +
		"\n" +
		"== No date (1)\n" +
		"[ ] x    5  Someday\n"
	if buf.String() != want {
		t.Errorf("render mismatch\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}

	buf.Reset()
	sectionRenderer{plain: true}.render(&buf, nil)
	if buf.String() != "No tasks.\n" {
		t.Errorf("unexpected empty render %q", buf.String())
	}
}
