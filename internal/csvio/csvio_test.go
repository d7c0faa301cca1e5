package csvio

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dori/tasktree/internal/model"
)

const header = "ID,Name,Link,Note,Importance,Complexity,Points,PlannedDate,DueDate,CreatedAt,UpdatedAt,ParentID,ParentName,Tags,TagColors\n"

func TestDecodeValidRows(t *testing.T) {
	input := header +
		`,Write report,https://example.com,"Draft, then ""polish""",30,3,999,2024-06-01,2024-06-10,,,,Work,work;writing,#ff0000` + "\n" +
		`,Call mom,,,50,1,,,,,,,,,` + "\n"

	drafts, errs := DecodeString(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}

	d := drafts[0]
	if d.Line != 2 {
		t.Errorf("expected line 2, got %d", d.Line)
	}
	if d.Name != "Write report" || d.Link != "https://example.com" {
		t.Errorf("unexpected name/link: %q %q", d.Name, d.Link)
	}
	if d.Note != `Draft, then "polish"` {
		t.Errorf("quoted note not unescaped: %q", d.Note)
	}
	if d.Points() != 100 {
		t.Errorf("points should be recomputed to 100, got %d", d.Points())
	}
	if d.SuppliedPoints == nil || *d.SuppliedPoints != 999 {
		t.Errorf("supplied points should be kept as 999, got %v", d.SuppliedPoints)
	}
	if model.FormatDate(d.PlannedDate) != "2024-06-01" || model.FormatDate(d.DueDate) != "2024-06-10" {
		t.Errorf("unexpected dates: %v %v", d.PlannedDate, d.DueDate)
	}
	if d.ParentName != "Work" {
		t.Errorf("expected parent name Work, got %q", d.ParentName)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "work" || d.Tags[1] != "writing" {
		t.Errorf("unexpected tags: %v", d.Tags)
	}
	if len(d.TagColors) != 2 || d.TagColors[0] != "#ff0000" || d.TagColors[1] != "" {
		t.Errorf("short color list should be padded: %q", d.TagColors)
	}

	if drafts[1].Points() != 500 || drafts[1].PlannedDate != nil || drafts[1].DueDate != nil {
		t.Errorf("unexpected second draft: %+v", drafts[1])
	}
}

func TestDecodeCollectsRowErrors(t *testing.T) {
	input := header +
		",,,,10,2,,,,,,,,,\n" + // line 2: missing name
		",Too important,,,51,2,,,,,,,,,\n" + // line 3
		",Not a number,,,ten,2,,,,,,,,,\n" + // line 4
		",Zero complexity,,,10,0,,,,,,,,,\n" + // line 5
		",Bad date,,,10,2,,2024-13-01,,,,,,,\n" + // line 6
		",Good,,,10,2,,,,,,,,,\n" // line 7

	drafts, errs := DecodeString(input)
	if len(drafts) != 1 || drafts[0].Name != "Good" {
		t.Fatalf("expected only the good row to parse, got %+v", drafts)
	}
	if drafts[0].Line != 7 {
		t.Errorf("good row should keep line 7, got %d", drafts[0].Line)
	}

	want := []struct {
		line int
		err  error
	}{
		{2, ErrMissingName},
		{3, ErrImportanceRange},
		{4, ErrImportanceRange},
		{5, ErrComplexityRange},
		{6, ErrInvalidDate},
	}
	if len(errs) != len(want) {
		t.Fatalf("expected %d errors, got %d: %v", len(want), len(errs), errs)
	}
	for i, w := range want {
		if errs[i].Line != w.line {
			t.Errorf("error %d: line = %d, want %d", i, errs[i].Line, w.line)
		}
		if !errors.Is(errs[i], w.err) {
			t.Errorf("error %d: %v is not %v", i, errs[i], w.err)
		}
		if !strings.HasPrefix(errs[i].Error(), "line ") {
			t.Errorf("error %d should be tagged with its line: %q", i, errs[i].Error())
		}
	}
}

func TestDecodeMultilineQuotedField(t *testing.T) {
	input := header +
		",First,,\"line one\nline two\",10,2,,,,,,,,,\n" +
		",Second,,,10,2,,,,,,,,,\n"

	drafts, errs := DecodeString(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if drafts[0].Note != "line one\nline two" {
		t.Errorf("multi-line note mangled: %q", drafts[0].Note)
	}
	if drafts[1].Line != 4 {
		t.Errorf("row after a multi-line field should start on line 4, got %d", drafts[1].Line)
	}
}

func TestDecodeMalformedQuotingContinues(t *testing.T) {
	input := header +
		",Bro\"ken,,,10,2,,,,,,,,,\n" +
		",Fine,,,10,2,,,,,,,,,\n"

	drafts, errs := DecodeString(input)
	if len(errs) != 1 || errs[0].Line != 2 {
		t.Fatalf("expected one error on line 2, got %v", errs)
	}
	if len(drafts) != 1 || drafts[0].Name != "Fine" {
		t.Fatalf("expected the following row to parse, got %+v", drafts)
	}
}

func TestDecodeWithoutHeaderAndShortRows(t *testing.T) {
	input := ",Headless,,,5,5\n,,,,,,,,,,,,,,\n"

	drafts, errs := DecodeString(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(drafts) != 1 {
		t.Fatalf("blank row should be skipped, got %d drafts", len(drafts))
	}
	if drafts[0].Line != 1 || drafts[0].Points() != 10 {
		t.Errorf("unexpected draft: %+v", drafts[0])
	}
}

func TestParseRow(t *testing.T) {
	d, err := ParseRow(`,"Plan, then do",,,25,5,,,,,,,"Parent ""X""",a;b;c,#111;#222`, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "Plan, then do" || d.ParentName != `Parent "X"` || d.Line != 9 {
		t.Errorf("unexpected draft: %+v", d)
	}
	if d.Points() != 50 {
		t.Errorf("expected 50 points, got %d", d.Points())
	}
	if got := strings.Join(d.TagColors, "|"); got != "#111|#222|" {
		t.Errorf("unexpected colors: %q", got)
	}

	_, err = ParseRow(`,Name,,,10,10`, 3)
	var rowErr RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 3 || !errors.Is(err, ErrComplexityRange) {
		t.Errorf("expected complexity error on line 3, got %v", err)
	}
}

func TestZipTagsDropsEmptyNames(t *testing.T) {
	tags, colors := zipTags("a;;c", "#1;#2;#3")
	if strings.Join(tags, ",") != "a,c" || strings.Join(colors, ",") != "#1,#3" {
		t.Errorf("unexpected pairing: %v %v", tags, colors)
	}
}

func TestEncode(t *testing.T) {
	planned := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	parentID := "p1"

	tasks := []model.Task{
		{
			ID: "p1", Name: "Project, big", Importance: 30, Complexity: 3, Points: 1,
			PlannedDate: &planned, CreatedAt: created,
			Tags: []model.Tag{{Name: "work", Color: "#ff0000"}, {Name: "home"}},
			Subtasks: []model.Task{
				{ID: "c1", Name: `Say "hi"`, Importance: 10, Complexity: 2, ParentID: &parentID},
			},
		},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, tasks); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != strings.TrimSpace(header) {
		t.Errorf("unexpected header: %s", lines[0])
	}

	wantParent := `p1,"Project, big",,,30,3,100,2024-06-01,,2024-05-01T09:30:00Z,,,,work;home,#ff0000;`
	if lines[1] != wantParent {
		t.Errorf("parent row:\n got %s\nwant %s", lines[1], wantParent)
	}
	wantChild := `c1,"Say ""hi""",,,10,2,50,,,,,p1,"Project, big",,`
	if lines[2] != wantChild {
		t.Errorf("child row:\n got %s\nwant %s", lines[2], wantChild)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	due := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "1", Name: "Root", Note: "multi\nline, note", Importance: 40, Complexity: 2, DueDate: &due,
			Subtasks: []model.Task{{ID: "2", Name: "Child", Importance: 5, Complexity: 5,
				Tags: []model.Tag{{Name: "x", Color: "#abc"}}}}},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, tasks); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	drafts, errs := Decode(&buf)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].Note != "multi\nline, note" || model.FormatDate(drafts[0].DueDate) != "2024-07-04" {
		t.Errorf("root not preserved: %+v", drafts[0])
	}
	if drafts[1].ParentName != "Root" || drafts[1].Tags[0] != "x" || drafts[1].TagColors[0] != "#abc" {
		t.Errorf("child not preserved: %+v", drafts[1])
	}
}
