package importer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dori/tasktree/internal/csvio"
	"github.com/dori/tasktree/internal/model"
)

// memStore is an in-memory Store
type memStore struct {
	tasks   []model.Task
	tagIDs  map[string][]string // task ID -> tag IDs
	tags    map[string]*model.Tag
	failFor string // task name whose creation fails
	nextID  int
}

func newMemStore() *memStore {
	return &memStore{
		tagIDs: make(map[string][]string),
		tags:   make(map[string]*model.Tag),
	}
}

func (s *memStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

func (s *memStore) GetTagByName(ownerID, name string) (*model.Tag, error) {
	for _, t := range s.tags {
		if t.OwnerID == ownerID && t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateTag(ownerID, name, color string) (*model.Tag, error) {
	t := &model.Tag{ID: s.id("tag"), OwnerID: ownerID, Name: name, Color: color}
	s.tags[t.ID] = t
	cp := *t
	return &cp, nil
}

func (s *memStore) UpdateTagColor(id, color string) error {
	t, ok := s.tags[id]
	if !ok {
		return errors.New("no such tag")
	}
	t.Color = color
	return nil
}

func (s *memStore) CreateTask(task *model.Task, tagIDs []string) error {
	if task.Name == s.failFor {
		return errors.New("disk full")
	}
	task.ID = s.id("task")
	s.tasks = append(s.tasks, *task)
	s.tagIDs[task.ID] = tagIDs
	return nil
}

func (s *memStore) byName(name string) *model.Task {
	for i := range s.tasks {
		if s.tasks[i].Name == name {
			return &s.tasks[i]
		}
	}
	return nil
}

func (s *memStore) parentName(name string) string {
	t := s.byName(name)
	if t == nil || t.ParentID == nil {
		return ""
	}
	for _, p := range s.tasks {
		if p.ID == *t.ParentID {
			return p.Name
		}
	}
	return "?"
}

func (s *memStore) tagByName(name string) *model.Tag {
	for _, t := range s.tags {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func row(name, parent string, extra ...string) string {
	tags, colors := "", ""
	if len(extra) > 0 {
		tags = extra[0]
	}
	if len(extra) > 1 {
		colors = extra[1]
	}
	return fmt.Sprintf(",%s,,,10,2,,,,,,,%s,%s,%s\n", name, parent, tags, colors)
}

func draft(name, parent string) csvio.DraftRecord {
	return csvio.DraftRecord{Name: name, ParentName: parent, Importance: 10, Complexity: 2}
}

func draftNames(drafts []csvio.DraftRecord) string {
	names := make([]string, len(drafts))
	for i, d := range drafts {
		names[i] = d.Name
	}
	return strings.Join(names, ",")
}

func TestDepths(t *testing.T) {
	drafts := []csvio.DraftRecord{
		draft("child", "Parent"),
		draft("parent", "grandparent"),
		draft("Grandparent", ""),
		draft("orphan", "nobody"),
		draft("self", "SELF"),
	}

	got := Depths(drafts)
	want := []int{2, 1, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("depth of %s = %d, want %d", drafts[i].Name, got[i], want[i])
		}
	}
}

func TestDepthsCycleTerminates(t *testing.T) {
	drafts := []csvio.DraftRecord{
		draft("a", "b"),
		draft("b", "c"),
		draft("c", "a"),
	}

	got := Depths(drafts)
	for i, d := range got {
		if d != 2 {
			t.Errorf("depth of %s = %d, want 2", drafts[i].Name, d)
		}
	}
}

func TestOrderByDepthIsStable(t *testing.T) {
	drafts := []csvio.DraftRecord{
		draft("x1", "x"),
		draft("y", ""),
		draft("x", ""),
		draft("y1", "y"),
		draft("x2", "x1"),
	}

	got := draftNames(OrderByDepth(drafts))
	if got != "y,x,x1,y1,x2" {
		t.Errorf("unexpected order %s", got)
	}
	if draftNames(drafts) != "x1,y,x,y1,x2" {
		t.Error("input was modified")
	}
}

func TestImportChainInAnyRowOrder(t *testing.T) {
	rows := []string{
		row("Grandparent", ""),
		row("Parent", "grandparent"),
		row("Child", "PARENT"),
	}
	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	for _, perm := range permutations {
		var input strings.Builder
		for _, i := range perm {
			input.WriteString(rows[i])
		}

		store := newMemStore()
		res := Import(strings.NewReader(input.String()), "owner", store, Options{})
		if res.Imported != 3 || len(res.Errors) != 0 {
			t.Fatalf("perm %v: imported %d, errors %v", perm, res.Imported, res.Errors)
		}
		if got := store.parentName("Grandparent"); got != "" {
			t.Errorf("perm %v: grandparent has parent %q", perm, got)
		}
		if got := store.parentName("Parent"); got != "Grandparent" {
			t.Errorf("perm %v: parent linked to %q", perm, got)
		}
		if got := store.parentName("Child"); got != "Parent" {
			t.Errorf("perm %v: child linked to %q", perm, got)
		}
	}
}

func TestImportCaseInsensitiveParent(t *testing.T) {
	input := row("a", "gtd project") +
		row("b", "GTD Project") +
		row("c", "GTD PROJECT") +
		row("GTD Project", "")

	store := newMemStore()
	res := Import(strings.NewReader(input), "owner", store, Options{})
	if res.Imported != 4 || len(res.Errors) != 0 {
		t.Fatalf("imported %d, errors %v", res.Imported, res.Errors)
	}
	for _, name := range []string{"a", "b", "c"} {
		if got := store.parentName(name); got != "GTD Project" {
			t.Errorf("%s linked to %q", name, got)
		}
	}
}

func TestImportOrphanAndSelfReference(t *testing.T) {
	input := row("Orphan", "Does not exist") + row("Narcissus", "narcissus")

	store := newMemStore()
	res := Import(strings.NewReader(input), "owner", store, Options{})
	if res.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d", res.Imported)
	}
	if len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Fatalf("expected silent degrade, got errors %v warnings %v", res.Errors, res.Warnings)
	}
	if store.byName("Orphan").ParentID != nil || store.byName("Narcissus").ParentID != nil {
		t.Error("orphan and self reference should become root tasks")
	}
}

func TestImportReportUnresolved(t *testing.T) {
	input := row("Orphan", "Does not exist") + row("Narcissus", "Narcissus") + row("Fine", "")

	res := Import(strings.NewReader(input), "owner", newMemStore(), Options{ReportUnresolved: true})
	if res.Imported != 3 || len(res.Errors) != 0 {
		t.Fatalf("warnings must not block rows: imported %d, errors %v", res.Imported, res.Errors)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", res.Warnings)
	}
	if !errors.Is(res.Warnings[0], ErrUnresolvedParent) || res.Warnings[0].Line != 1 {
		t.Errorf("unexpected first warning: %v", res.Warnings[0])
	}
	if !errors.Is(res.Warnings[1], ErrSelfParent) || res.Warnings[1].Line != 2 {
		t.Errorf("unexpected second warning: %v", res.Warnings[1])
	}
}

func TestImportCycleInBatch(t *testing.T) {
	input := row("A", "B") + row("B", "A")

	store := newMemStore()
	res := Import(strings.NewReader(input), "owner", store, Options{})
	if res.Imported != 2 || len(res.Errors) != 0 {
		t.Fatalf("imported %d, errors %v", res.Imported, res.Errors)
	}
	// Equal depth keeps input order: A becomes a root, B hangs below it
	if store.parentName("A") != "" || store.parentName("B") != "A" {
		t.Errorf("unexpected links: A->%q B->%q", store.parentName("A"), store.parentName("B"))
	}
}

func TestImportTags(t *testing.T) {
	store := newMemStore()
	existing, _ := store.CreateTag("owner", "home", "#000000")
	store.CreateTag("someone-else", "work", "#123456")

	input := row("one", "", "work;home", "#ff0000") +
		row("two", "", "home;work;home", ";;") +
		row("three", "", "home", "#ffffff")

	res := Import(strings.NewReader(input), "owner", store, Options{DefaultTagColor: "#cccccc"})
	if res.Imported != 3 || len(res.Errors) != 0 {
		t.Fatalf("imported %d, errors %v", res.Imported, res.Errors)
	}

	var work *model.Tag
	for _, tag := range store.tags {
		if tag.OwnerID == "owner" && tag.Name == "work" {
			work = tag
		}
	}
	if work == nil || work.Color != "#ff0000" {
		t.Fatalf("work tag should be created for owner with row color, got %+v", work)
	}
	if got := store.tags[existing.ID].Color; got != "#ffffff" {
		t.Errorf("existing tag color should follow the last row, got %s", got)
	}

	if ids := store.tagIDs[store.byName("two").ID]; len(ids) != 2 {
		t.Errorf("duplicate tag names should link once, got %v", ids)
	}

	// A missing color falls back to the configured default
	store2 := newMemStore()
	Import(strings.NewReader(row("x", "", "fresh")), "owner", store2, Options{DefaultTagColor: "#cccccc"})
	if tag := store2.tagByName("fresh"); tag == nil || tag.Color != "#cccccc" {
		t.Errorf("expected default color, got %+v", tag)
	}
}

func TestImportErrorsDoNotStopBatch(t *testing.T) {
	input := row("Parent", "") +
		",,,,10,2,,,,,,,,,\n" + // line 2: no name
		row("Broken", "Parent") + // line 3: store failure
		",Bad,,,99,2,,,,,,,,,\n" + // line 4
		row("Child", "Parent") // line 5

	store := newMemStore()
	store.failFor = "Broken"

	res := Import(strings.NewReader(input), "owner", store, Options{})
	if res.Imported != 2 {
		t.Errorf("expected 2 imported, got %d", res.Imported)
	}
	msgs := res.ErrorMessages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 errors, got %v", msgs)
	}
	for i, prefix := range []string{"line 2:", "line 3:", "line 4:"} {
		if !strings.HasPrefix(msgs[i], prefix) {
			t.Errorf("error %d = %q, want prefix %q", i, msgs[i], prefix)
		}
	}
	if store.parentName("Child") != "Parent" {
		t.Error("rows after a failure should still resolve their parent")
	}
}

func TestImportRecomputesPoints(t *testing.T) {
	input := ",Heavy,,,50,1,3,,,,,,,,\n"

	store := newMemStore()
	res := Import(strings.NewReader(input), "owner", store, Options{})
	if res.Imported != 1 {
		t.Fatalf("expected 1 import, got %d (%v)", res.Imported, res.Errors)
	}
	if got := store.byName("Heavy").Points; got != 500 {
		t.Errorf("points should be recomputed to 500, got %d", got)
	}
	if res.Tasks[0].OwnerID != "owner" {
		t.Errorf("owner not set on task: %+v", res.Tasks[0])
	}
}

func TestImportOfExportNormalizesNamesAndColors(t *testing.T) {
	pid := "p1"
	tasks := []model.Task{{
		ID: pid, Name: "  Padded ", Importance: 10, Complexity: 2,
		Tags: []model.Tag{{Name: "bare"}, {Name: "red", Color: "#ff0000"}},
		Subtasks: []model.Task{
			{ID: "c1", Name: "Child", Importance: 5, Complexity: 1, ParentID: &pid},
		},
	}}

	var buf bytes.Buffer
	if err := csvio.Encode(&buf, tasks); err != nil {
		t.Fatal(err)
	}

	store := newMemStore()
	res := Import(&buf, "owner", store, Options{DefaultTagColor: "#cccccc"})
	if res.Imported != 2 || len(res.Errors) != 0 {
		t.Fatalf("imported %d, errors %v", res.Imported, res.Errors)
	}
	if store.byName("Padded") == nil {
		t.Fatal("name should be trimmed on import")
	}
	if got := store.parentName("Child"); got != "Padded" {
		t.Errorf("child parent = %q, want Padded", got)
	}
	if tag := store.tagByName("bare"); tag == nil || tag.Color != "#cccccc" {
		t.Errorf("colorless tag should get the default color, got %+v", tag)
	}
	if tag := store.tagByName("red"); tag == nil || tag.Color != "#ff0000" {
		t.Errorf("tag color should survive, got %+v", tag)
	}
}
