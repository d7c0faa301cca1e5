package priority

import (
	"cmp"
	"sort"

	"github.com/dori/tasktree/internal/model"
)

// Compare orders two tasks for one DateContext. It returns a negative number
// when a sorts before b, a positive number when after, and zero only for
// tasks that are indistinguishable (same keys, creation time and ID).
func Compare(a, b *model.Task, dc DateContext) int {
	return compareRanked(
		ranked{task: a, place: Categorize(a, dc)},
		ranked{task: b, place: Categorize(b, dc)},
	)
}

type ranked struct {
	task  *model.Task
	place Placement
}

func compareRanked(a, b ranked) int {
	if c := cmp.Compare(a.place.Category.Rank(), b.place.Category.Rank()); c != 0 {
		return c
	}

	switch a.place.Category {
	case Overdue:
		if c := a.place.Date.Compare(b.place.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(b.task.Points, a.task.Points); c != 0 {
			return c
		}
	case Today, Tomorrow:
		if c := cmp.Compare(b.task.Points, a.task.Points); c != 0 {
			return c
		}
		if c := cmp.Compare(signalRank(a.place.Signal), signalRank(b.place.Signal)); c != 0 {
			return c
		}
		if c := a.place.Date.Compare(b.place.Date); c != 0 {
			return c
		}
	case NoDate:
		if c := cmp.Compare(b.task.Points, a.task.Points); c != 0 {
			return c
		}
	case Future:
		if c := a.place.Date.Compare(b.place.Date); c != 0 {
			return c
		}
	case Collected:
		// creation order only
	}

	if c := a.task.CreatedAt.Compare(b.task.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.task.ID, b.task.ID)
}

// Due-driven membership sorts ahead of planned-driven membership
func signalRank(s Signal) int {
	switch s {
	case SignalDue:
		return 0
	case SignalPlanned:
		return 1
	default:
		return 2
	}
}

// Sort returns the top-level tasks in priority order. The input slice is not
// modified. Subtasks are left untouched; see SortTree.
func Sort(tasks []model.Task, dc DateContext) []model.Task {
	items := make([]ranked, len(tasks))
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		items[i] = ranked{task: &out[i], place: Categorize(&out[i], dc)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return compareRanked(items[i], items[j]) < 0
	})

	sorted := make([]model.Task, len(items))
	for i, it := range items {
		sorted[i] = *it.task
	}
	return sorted
}

// SortTree orders the top level with the priority comparator and every level
// below it with the subtask rules.
func SortTree(tasks []model.Task, dc DateContext) []model.Task {
	sorted := Sort(tasks, dc)
	for i := range sorted {
		SortSubtasks(&sorted[i])
	}
	return sorted
}

// Sort orders a task tree against the ranker's current day
func (r *Ranker) Sort(tasks []model.Task) []model.Task {
	return SortTree(tasks, r.DateContext())
}

// Group splits an already sorted top-level list into its categories,
// preserving order. Categories with no tasks are omitted.
func Group(sorted []model.Task, dc DateContext) []Section {
	var sections []Section
	for i := range sorted {
		c := Categorize(&sorted[i], dc).Category
		if n := len(sections); n == 0 || sections[n-1].Category != c {
			sections = append(sections, Section{Category: c})
		}
		sections[len(sections)-1].Tasks = append(sections[len(sections)-1].Tasks, sorted[i])
	}
	return sections
}

// Section is a run of consecutive tasks sharing a category
type Section struct {
	Category Category
	Tasks    []model.Task
}
