package ui

// View represents the current active view
type View int

const (
	ViewTree View = iota
	ViewSummary
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewTree:
		return "Tree"
	case ViewSummary:
		return "Summary"
	default:
		return "Unknown"
	}
}
