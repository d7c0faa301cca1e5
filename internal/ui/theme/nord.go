package theme

import "github.com/charmbracelet/lipgloss"

// Nord theme - Arctic, north-bluish color palette
// https://www.nordtheme.com/
var Nord = Theme{
	Name: "nord",

	// Polar Night (dark backgrounds)
	Background: lipgloss.Color("#2E3440"),
	Foreground: lipgloss.Color("#ECEFF4"),
	Subtle:     lipgloss.Color("#4C566A"),
	Highlight:  lipgloss.Color("#3B4252"),
	Border:     lipgloss.Color("#4C566A"),

	// Frost (primary blues)
	Primary:   lipgloss.Color("#88C0D0"), // Nord8 - bright cyan
	Secondary: lipgloss.Color("#81A1C1"), // Nord9 - desaturated blue
	Info:      lipgloss.Color("#5E81AC"), // Nord10 - dark blue

	// Aurora (accent colors)
	Success: lipgloss.Color("#A3BE8C"), // Nord14 - green
	Warning: lipgloss.Color("#EBCB8B"), // Nord13 - yellow
	Error:   lipgloss.Color("#BF616A"), // Nord11 - red

	// Category colors
	Collected: lipgloss.Color("#B48EAD"), // Nord15 - purple, the inbox
	Overdue:   lipgloss.Color("#BF616A"), // Nord11 - red
	Today:     lipgloss.Color("#D08770"), // Nord12 - orange
	Tomorrow:  lipgloss.Color("#EBCB8B"), // Nord13 - yellow
	NoDate:    lipgloss.Color("#81A1C1"), // Nord9 - blue
	Future:    lipgloss.Color("#A3BE8C"), // Nord14 - green
}
