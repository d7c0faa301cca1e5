package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dori/tasktree/internal/model"
)

// Encode writes the header and one row per task. Subtasks are flattened
// depth-first so every parent precedes its children. The codec exports
// exactly the list it is given; filtering is the caller's job.
//
// Importing the output again normalizes two things: names are trimmed of
// surrounding whitespace, and a tag exported without a color is created
// with the importer's default color.
func Encode(w io.Writer, tasks []model.Task) error {
	names := make(map[string]string)
	for i := range tasks {
		tasks[i].Walk(func(t *model.Task, _ int) bool {
			if t.ID != "" {
				names[t.ID] = t.Name
			}
			return true
		})
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var writeErr error
	var write func(t *model.Task, parent *model.Task)
	write = func(t *model.Task, parent *model.Task) {
		if writeErr != nil {
			return
		}
		if err := cw.Write(encodeRecord(t, parent, names)); err != nil {
			writeErr = fmt.Errorf("write task %q: %w", t.Name, err)
			return
		}
		for i := range t.Subtasks {
			write(&t.Subtasks[i], t)
		}
	}
	for i := range tasks {
		write(&tasks[i], nil)
	}
	if writeErr != nil {
		return writeErr
	}

	cw.Flush()
	return cw.Error()
}

func encodeRecord(t *model.Task, parent *model.Task, names map[string]string) []string {
	record := make([]string, len(Header))
	record[colID] = t.ID
	record[colName] = t.Name
	record[colLink] = t.Link
	record[colNote] = t.Note
	record[colImportance] = strconv.Itoa(t.Importance)
	record[colComplexity] = strconv.Itoa(t.Complexity)
	record[colPoints] = strconv.Itoa(model.CalculatePoints(t.Importance, t.Complexity))
	record[colPlannedDate] = model.FormatDate(t.PlannedDate)
	record[colDueDate] = model.FormatDate(t.DueDate)
	record[colCreatedAt] = formatTimestamp(t.CreatedAt)
	record[colUpdatedAt] = formatTimestamp(t.UpdatedAt)

	switch {
	case parent != nil:
		record[colParentID] = parent.ID
		record[colParentName] = parent.Name
	case t.ParentID != nil:
		record[colParentID] = *t.ParentID
		record[colParentName] = names[*t.ParentID]
	}

	var tags, colors []string
	hasColor := false
	for _, tag := range t.Tags {
		tags = append(tags, tag.Name)
		colors = append(colors, tag.Color)
		if tag.Color != "" {
			hasColor = true
		}
	}
	record[colTags] = strings.Join(tags, ListSeparator)
	if hasColor {
		record[colTagColors] = strings.Join(colors, ListSeparator)
	}

	return record
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
