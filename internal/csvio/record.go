// Package csvio reads and writes the flat CSV representation of a task tree.
//
// Rows reference their parent by name (ParentName); the exported ID and
// ParentID columns are informational and ignored on import.
package csvio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dori/tasktree/internal/model"
)

// Header is the exact, positional column layout
var Header = []string{
	"ID", "Name", "Link", "Note", "Importance", "Complexity", "Points",
	"PlannedDate", "DueDate", "CreatedAt", "UpdatedAt", "ParentID",
	"ParentName", "Tags", "TagColors",
}

const (
	colID = iota
	colName
	colLink
	colNote
	colImportance
	colComplexity
	colPoints
	colPlannedDate
	colDueDate
	colCreatedAt
	colUpdatedAt
	colParentID
	colParentName
	colTags
	colTagColors
)

// ListSeparator splits the Tags and TagColors cells
const ListSeparator = ";"

var (
	ErrMissingName     = errors.New("name is required")
	ErrImportanceRange = fmt.Errorf("importance must be a whole number between %d and %d", model.MinImportance, model.MaxImportance)
	ErrComplexityRange = fmt.Errorf("complexity must be a whole number between %d and %d", model.MinComplexity, model.MaxComplexity)
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
)

// DraftRecord is one validated import row, not yet materialized into a task
type DraftRecord struct {
	Line       int
	Name       string
	Link       string
	Note       string
	Importance int
	Complexity int
	// SuppliedPoints is what the row claimed; Points() is what gets stored
	SuppliedPoints *int
	PlannedDate    *time.Time
	DueDate        *time.Time
	ParentName     string
	Tags           []string
	// TagColors is parallel to Tags; "" means no color was given
	TagColors []string
}

// Points recomputes the score from importance and complexity
func (d *DraftRecord) Points() int {
	return model.CalculatePoints(d.Importance, d.Complexity)
}

// RowError ties a rejected row to the line it started on
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// ParseRecord validates one CSV record. line is 1-based and only used to tag
// the result. Missing trailing columns read as empty.
func ParseRecord(record []string, line int) (*DraftRecord, error) {
	get := func(col int) string {
		if col >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[col])
	}

	d := &DraftRecord{
		Line:       line,
		Name:       get(colName),
		Link:       get(colLink),
		ParentName: get(colParentName),
	}
	if colNote < len(record) {
		d.Note = record[colNote]
	}

	if d.Name == "" {
		return nil, RowError{Line: line, Err: ErrMissingName}
	}

	importance, err := strconv.Atoi(get(colImportance))
	if err != nil || !model.ValidImportance(importance) {
		return nil, RowError{Line: line, Err: fmt.Errorf("%w, got %q", ErrImportanceRange, get(colImportance))}
	}
	d.Importance = importance

	complexity, err := strconv.Atoi(get(colComplexity))
	if err != nil || !model.ValidComplexity(complexity) {
		return nil, RowError{Line: line, Err: fmt.Errorf("%w, got %q", ErrComplexityRange, get(colComplexity))}
	}
	d.Complexity = complexity

	// Supplied points are kept for reference only
	if p, err := strconv.Atoi(get(colPoints)); err == nil {
		d.SuppliedPoints = &p
	}

	if d.PlannedDate, err = model.ParseDate(get(colPlannedDate)); err != nil {
		return nil, RowError{Line: line, Err: fmt.Errorf("planned date: %w, got %q", ErrInvalidDate, get(colPlannedDate))}
	}
	if d.DueDate, err = model.ParseDate(get(colDueDate)); err != nil {
		return nil, RowError{Line: line, Err: fmt.Errorf("due date: %w, got %q", ErrInvalidDate, get(colDueDate))}
	}

	d.Tags, d.TagColors = zipTags(get(colTags), get(colTagColors))
	return d, nil
}

// zipTags pairs tag names with colors by position. Empty names are dropped
// together with their color slot; missing colors become "".
func zipTags(names, colors string) ([]string, []string) {
	if names == "" {
		return nil, nil
	}

	var colorList []string
	if colors != "" {
		colorList = strings.Split(colors, ListSeparator)
	}

	var tags, tagColors []string
	for i, name := range strings.Split(names, ListSeparator) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		color := ""
		if i < len(colorList) {
			color = strings.TrimSpace(colorList[i])
		}
		tags = append(tags, name)
		tagColors = append(tagColors, color)
	}
	return tags, tagColors
}

func isHeader(record []string) bool {
	if len(record) < 2 {
		return false
	}
	first := strings.TrimPrefix(strings.TrimSpace(record[colID]), "\ufeff")
	return strings.EqualFold(first, Header[colID]) &&
		strings.EqualFold(strings.TrimSpace(record[colName]), Header[colName])
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
