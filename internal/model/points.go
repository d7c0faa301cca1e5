package model

import "math"

const (
	MinImportance = 0
	MaxImportance = 50
	MinComplexity = 1
	MaxComplexity = 9

	// MaxPoints is reached with maximum importance at minimal complexity
	MaxPoints = 500
)

// CalculatePoints scores a task as round(10 * importance / complexity),
// clamped to [0, MaxPoints]. Complexity below 1 is treated as 1.
func CalculatePoints(importance, complexity int) int {
	if importance <= 0 {
		return 0
	}
	if complexity < MinComplexity {
		complexity = MinComplexity
	}
	points := int(math.Round(10 * float64(importance) / float64(complexity)))
	return min(max(points, 0), MaxPoints)
}

// ValidImportance reports whether v lies in [MinImportance, MaxImportance]
func ValidImportance(v int) bool {
	return v >= MinImportance && v <= MaxImportance
}

// ValidComplexity reports whether v lies in [MinComplexity, MaxComplexity]
func ValidComplexity(v int) bool {
	return v >= MinComplexity && v <= MaxComplexity
}
