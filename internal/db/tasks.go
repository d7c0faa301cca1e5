package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dori/tasktree/internal/model"
	"github.com/google/uuid"
)

const taskColumns = `id, owner_id, name, link, note, importance, complexity, points,
	planned_date, due_date, parent_id, position, completed, completed_at,
	created_at, updated_at`

// TaskFilter narrows task queries. OwnerID is required.
type TaskFilter struct {
	OwnerID          string
	IncludeCompleted bool
	Tag              string // exact tag name
	Search           string // case-insensitive substring of the task name
}

func (f TaskFilter) where() (string, []any) {
	clauses := []string{"owner_id = ?"}
	args := []any{f.OwnerID}

	if !f.IncludeCompleted {
		clauses = append(clauses, "completed = 0")
	}
	if f.Search != "" {
		clauses = append(clauses, "name LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(f.Search)+"%")
	}
	if f.Tag != "" {
		clauses = append(clauses, `id IN (
			SELECT tt.task_id FROM task_tags tt
			JOIN tags g ON g.id = tt.tag_id
			WHERE g.owner_id = ? AND g.name = ?)`)
		args = append(args, f.OwnerID, f.Tag)
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// GetTasks returns the matching tasks as a flat list with tags loaded
func (db *DB) GetTasks(filter TaskFilter) ([]model.Task, error) {
	where, args := filter.where()
	rows, err := db.Query(`SELECT `+taskColumns+` FROM tasks WHERE `+where+`
		ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	// Tags are loaded after rows is closed; a nested query would block on
	// the single connection
	if err := db.attachTags(filter.OwnerID, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTaskTree returns the owner's root tasks with Subtasks filled in.
// Tasks whose parent is excluded by the filter become roots. Tag and Search
// keep every tree in which at least one task matches.
func (db *DB) GetTaskTree(filter TaskFilter) ([]model.Task, error) {
	all, err := db.GetTasks(TaskFilter{OwnerID: filter.OwnerID, IncludeCompleted: filter.IncludeCompleted})
	if err != nil {
		return nil, err
	}

	var matches map[string]bool
	if filter.Tag != "" || filter.Search != "" {
		matched, err := db.GetTasks(filter)
		if err != nil {
			return nil, err
		}
		matches = make(map[string]bool, len(matched))
		for _, t := range matched {
			matches[t.ID] = true
		}
	}

	roots := BuildTree(all)
	if matches == nil {
		return roots, nil
	}

	var kept []model.Task
	for i := range roots {
		found := false
		roots[i].Walk(func(t *model.Task, _ int) bool {
			if matches[t.ID] {
				found = true
			}
			return !found
		})
		if found {
			kept = append(kept, roots[i])
		}
	}
	return kept, nil
}

// BuildTree assembles a flat task list into trees, keeping input order among
// siblings. A task whose parent is missing from the list becomes a root;
// members of a parent cycle are cut loose as roots as well.
func BuildTree(tasks []model.Task) []model.Task {
	byID := make(map[string]int, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = i
	}

	children := make(map[string][]int)
	var rootIdx []int
	for i := range tasks {
		p := tasks[i].ParentID
		if p != nil {
			if _, ok := byID[*p]; ok && *p != tasks[i].ID {
				children[*p] = append(children[*p], i)
				continue
			}
		}
		rootIdx = append(rootIdx, i)
	}

	placed := make([]bool, len(tasks))
	var build func(i int) model.Task
	build = func(i int) model.Task {
		placed[i] = true
		t := tasks[i]
		t.Subtasks = nil
		for _, c := range children[t.ID] {
			if !placed[c] {
				t.Subtasks = append(t.Subtasks, build(c))
			}
		}
		return t
	}

	roots := make([]model.Task, 0, len(rootIdx))
	for _, i := range rootIdx {
		roots = append(roots, build(i))
	}
	for i := range tasks {
		if !placed[i] {
			roots = append(roots, build(i))
		}
	}
	return roots
}

// GetTask returns a single task by ID with its tags
func (db *DB) GetTask(id string) (*model.Task, error) {
	row := db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	tags, err := db.GetTaskTags(id)
	if err != nil {
		return nil, err
	}
	t.Tags = tags
	return t, nil
}

// FindTask resolves a full ID or a unique ID prefix within the owner's tasks
func (db *DB) FindTask(ownerID, prefix string) (*model.Task, error) {
	rows, err := db.Query(`SELECT id FROM tasks WHERE owner_id = ? AND id LIKE ? ESCAPE '\' LIMIT 2`,
		ownerID, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	switch len(ids) {
	case 0:
		return nil, nil
	case 1:
		return db.GetTask(ids[0])
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousID, prefix)
	}
}

// GetSubtasks returns the direct children of a task
func (db *DB) GetSubtasks(parentID string) ([]model.Task, error) {
	rows, err := db.Query(`SELECT `+taskColumns+` FROM tasks WHERE parent_id = ?
		ORDER BY created_at, id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subtasks: %w", err)
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		tags, err := db.GetTaskTags(tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Tags = tags
	}
	return tasks, nil
}

// CreateTask inserts task and links it to tagIDs in one transaction. ID,
// timestamps and Points are filled in on task.
func (db *DB) CreateTask(task *model.Task, tagIDs []string) error {
	if !model.ValidImportance(task.Importance) || !model.ValidComplexity(task.Complexity) {
		return fmt.Errorf("%w: importance %d, complexity %d", ErrInvalidWeights, task.Importance, task.Complexity)
	}

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	task.RecalculatePoints()

	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO tasks (`+taskColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, task.ID, task.OwnerID, task.Name, task.Link, task.Note,
			task.Importance, task.Complexity, task.Points,
			nullDate(task.PlannedDate), nullDate(task.DueDate), task.ParentID, task.Position,
			task.Completed, task.CompletedAt, task.CreatedAt, task.UpdatedAt)
		if err != nil {
			return err
		}

		for _, tagID := range tagIDs {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)`,
				task.ID, tagID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// UpdateTaskName renames a task
func (db *DB) UpdateTaskName(id, name string) error {
	_, err := db.Exec(`UPDATE tasks SET name = ?, updated_at = ? WHERE id = ?`, name, time.Now(), id)
	return err
}

// UpdateTaskWeights sets importance and complexity and recomputes points
func (db *DB) UpdateTaskWeights(id string, importance, complexity int) error {
	if !model.ValidImportance(importance) || !model.ValidComplexity(complexity) {
		return fmt.Errorf("%w: importance %d, complexity %d", ErrInvalidWeights, importance, complexity)
	}
	points := model.CalculatePoints(importance, complexity)
	_, err := db.Exec(`UPDATE tasks SET importance = ?, complexity = ?, points = ?, updated_at = ? WHERE id = ?`,
		importance, complexity, points, time.Now(), id)
	return err
}

// UpdateTaskDates replaces both calendar dates; nil clears a date
func (db *DB) UpdateTaskDates(id string, planned, due *time.Time) error {
	_, err := db.Exec(`UPDATE tasks SET planned_date = ?, due_date = ?, updated_at = ? WHERE id = ?`,
		nullDate(planned), nullDate(due), time.Now(), id)
	return err
}

// SetTaskPosition sets the manual subtask position; nil restores automatic order
func (db *DB) SetTaskPosition(id string, position *int) error {
	_, err := db.Exec(`UPDATE tasks SET position = ?, updated_at = ? WHERE id = ?`, position, time.Now(), id)
	return err
}

// SetTaskParent moves a task below parentID, or to the root when nil
func (db *DB) SetTaskParent(id string, parentID *string) error {
	return db.Transaction(func(tx *sql.Tx) error {
		// Walk up from the new parent; meeting id means a cycle
		for cur := parentID; cur != nil; {
			if *cur == id {
				return ErrCycle
			}
			var next *string
			err := tx.QueryRow(`SELECT parent_id FROM tasks WHERE id = ?`, *cur).Scan(&next)
			if err == sql.ErrNoRows {
				return fmt.Errorf("parent %s not found", *cur)
			}
			if err != nil {
				return err
			}
			cur = next
		}

		_, err := tx.Exec(`UPDATE tasks SET parent_id = ?, updated_at = ? WHERE id = ?`, parentID, time.Now(), id)
		return err
	})
}

// ToggleTaskCompleted flips the completed flag and returns the new state
func (db *DB) ToggleTaskCompleted(id string) (bool, error) {
	var completed bool
	if err := db.QueryRow(`SELECT completed FROM tasks WHERE id = ?`, id).Scan(&completed); err != nil {
		return false, fmt.Errorf("failed to load task %s: %w", id, err)
	}

	now := time.Now()
	var completedAt any
	if !completed {
		completedAt = now
	}

	_, err := db.Exec(`UPDATE tasks SET completed = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		!completed, completedAt, now, id)
	if err != nil {
		return false, err
	}
	return !completed, nil
}

// DeleteTask deletes a task and its subtasks
func (db *DB) DeleteTask(id string) error {
	// SQLite cascade will handle subtasks
	_, err := db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// Helper functions

// attachTags loads every tag link of the owner in one query
func (db *DB) attachTags(ownerID string, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	rows, err := db.Query(`
		SELECT tt.task_id, g.id, g.owner_id, g.name, g.color, g.created_at
		FROM task_tags tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE g.owner_id = ?
		ORDER BY g.name
	`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to query task tags: %w", err)
	}
	defer rows.Close()

	byTask := make(map[string][]model.Tag)
	for rows.Next() {
		var taskID string
		var g model.Tag
		if err := rows.Scan(&taskID, &g.ID, &g.OwnerID, &g.Name, &g.Color, &g.CreatedAt); err != nil {
			return err
		}
		byTask[taskID] = append(byTask[taskID], g)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range tasks {
		tasks[i].Tags = byTask[tasks[i].ID]
	}
	return nil
}

func nullDate(d *time.Time) any {
	if d == nil {
		return nil
	}
	return model.FormatDate(d)
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	var planned, due sql.NullString
	var parentID sql.NullString
	var position sql.NullInt64
	var completedAt sql.NullTime

	err := s.Scan(
		&t.ID, &t.OwnerID, &t.Name, &t.Link, &t.Note,
		&t.Importance, &t.Complexity, &t.Points,
		&planned, &due, &parentID, &position,
		&t.Completed, &completedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if planned.Valid {
		if d, err := model.ParseDate(planned.String); err == nil {
			t.PlannedDate = d
		}
	}
	if due.Valid {
		if d, err := model.ParseDate(due.String); err == nil {
			t.DueDate = d
		}
	}
	if parentID.Valid {
		p := parentID.String
		t.ParentID = &p
	}
	if position.Valid {
		p := int(position.Int64)
		t.Position = &p
	}
	if completedAt.Valid {
		c := completedAt.Time
		t.CompletedAt = &c
	}

	return &t, nil
}
