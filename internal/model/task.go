package model

import (
	"time"
)

// DateLayout is the calendar-date format used for planned and due dates
const DateLayout = "2006-01-02"

// Task represents a node in the task tree
type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Link        string     `json:"link,omitempty"`
	Note        string     `json:"note,omitempty"`
	Importance  int        `json:"importance"` // 0-50
	Complexity  int        `json:"complexity"` // 1-9
	Points      int        `json:"points"`     // Derived, see CalculatePoints
	PlannedDate *time.Time `json:"planned_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ParentID    *string    `json:"parent_id,omitempty"`
	Position    *int       `json:"position,omitempty"` // Manual subtask order, nil means automatic
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Loaded relationships (not stored in tasks table)
	Tags     []Tag  `json:"tags,omitempty"`
	Subtasks []Task `json:"subtasks,omitempty"`
}

// SetImportance updates importance and keeps points consistent
func (t *Task) SetImportance(importance int) {
	t.Importance = importance
	t.RecalculatePoints()
}

// SetComplexity updates complexity and keeps points consistent
func (t *Task) SetComplexity(complexity int) {
	t.Complexity = complexity
	t.RecalculatePoints()
}

// RecalculatePoints derives Points from Importance and Complexity
func (t *Task) RecalculatePoints() {
	t.Points = CalculatePoints(t.Importance, t.Complexity)
}

// HasDates returns true if the task has a planned or a due date
func (t *Task) HasDates() bool {
	return t.PlannedDate != nil || t.DueDate != nil
}

// HasManualPosition returns true if the task carries a manual subtask position
func (t *Task) HasManualPosition() bool {
	return t.Position != nil && *t.Position > 0
}

// TagNames returns the names of the task's tags in their loaded order
func (t *Task) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// Walk visits the task and its subtasks depth-first, parents before children.
// Returning false from fn skips the subtree below that task.
func (t *Task) Walk(fn func(task *Task, depth int) bool) {
	t.walk(fn, 0)
}

func (t *Task) walk(fn func(task *Task, depth int) bool, depth int) {
	if !fn(t, depth) {
		return
	}
	for i := range t.Subtasks {
		t.Subtasks[i].walk(fn, depth+1)
	}
}

// FormatDate renders an optional calendar date, empty when absent
func FormatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date. Empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
