package importer

import (
	"sort"
	"strings"

	"github.com/dori/tasktree/internal/csvio"
)

// normalizeName is the key used for every name comparison during import
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Depths returns, for each draft, how many ancestors it can reach by
// following ParentName through the other drafts of the same batch. Matching
// is case-insensitive and the first draft carrying a name wins. A name seen
// twice on one walk ends the walk, so cycles yield a finite depth.
func Depths(drafts []csvio.DraftRecord) []int {
	byName := make(map[string]int, len(drafts))
	for i := range drafts {
		key := normalizeName(drafts[i].Name)
		if _, ok := byName[key]; !ok {
			byName[key] = i
		}
	}

	depths := make([]int, len(drafts))
	for i := range drafts {
		visited := map[string]bool{normalizeName(drafts[i].Name): true}
		cur := i
		for {
			parent := normalizeName(drafts[cur].ParentName)
			if parent == "" || visited[parent] {
				break
			}
			next, ok := byName[parent]
			if !ok {
				break
			}
			visited[parent] = true
			depths[i]++
			cur = next
		}
	}
	return depths
}

// OrderByDepth returns the drafts stably sorted by ascending depth, so every
// in-batch ancestor precedes its descendants. The input is not modified.
func OrderByDepth(drafts []csvio.DraftRecord) []csvio.DraftRecord {
	depths := Depths(drafts)

	order := make([]int, len(drafts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return depths[order[a]] < depths[order[b]]
	})

	out := make([]csvio.DraftRecord, len(drafts))
	for i, idx := range order {
		out[i] = drafts[idx]
	}
	return out
}
