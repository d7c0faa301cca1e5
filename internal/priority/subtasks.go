package priority

import (
	"slices"
	"sort"

	"github.com/dori/tasktree/internal/model"
)

// SortSubtasks orders every level below t. Children with a manual position
// come first, highest position first; the remaining children follow by
// points, highest first. Subtasks are not categorized by date.
//
// Child slices are copied before sorting so a tree shared with the caller is
// never reordered behind its back.
func SortSubtasks(t *model.Task) {
	t.Subtasks = sortedChildren(t.Subtasks)
}

func sortedChildren(children []model.Task) []model.Task {
	if len(children) == 0 {
		return children
	}

	out := slices.Clone(children)
	sort.SliceStable(out, func(i, j int) bool {
		return lessSubtask(&out[i], &out[j])
	})
	for i := range out {
		out[i].Subtasks = sortedChildren(out[i].Subtasks)
	}
	return out
}

func lessSubtask(a, b *model.Task) bool {
	am, bm := a.HasManualPosition(), b.HasManualPosition()
	switch {
	case am && bm:
		return *a.Position > *b.Position
	case am != bm:
		return am
	default:
		return a.Points > b.Points
	}
}
