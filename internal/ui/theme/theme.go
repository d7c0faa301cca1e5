package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasktree/internal/priority"
)

// Theme defines the color scheme and styles for the UI
type Theme struct {
	Name string

	// Base colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Highlight  lipgloss.Color
	Border     lipgloss.Color

	// Semantic colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Info      lipgloss.Color

	// Category colors
	Collected lipgloss.Color
	Overdue   lipgloss.Color
	Today     lipgloss.Color
	Tomorrow  lipgloss.Color
	NoDate    lipgloss.Color
	Future    lipgloss.Color
}

// CategoryColor returns the color used for a priority category
func (t Theme) CategoryColor(c priority.Category) lipgloss.Color {
	switch c {
	case priority.Collected:
		return t.Collected
	case priority.Overdue:
		return t.Overdue
	case priority.Today:
		return t.Today
	case priority.Tomorrow:
		return t.Tomorrow
	case priority.NoDate:
		return t.NoDate
	case priority.Future:
		return t.Future
	default:
		return t.Foreground
	}
}

// Styles holds pre-computed lipgloss styles based on theme
type Styles struct {
	Header lipgloss.Style
	Footer lipgloss.Style

	// Task styles
	TaskNormal   lipgloss.Style
	TaskSelected lipgloss.Style
	TaskDone     lipgloss.Style

	// Component styles
	Title         lipgloss.Style
	SectionHeader lipgloss.Style
	Label         lipgloss.Style
	Tag           lipgloss.Style
	Date          lipgloss.Style
	Points        lipgloss.Style

	Input lipgloss.Style
	Panel lipgloss.Style

	// Help styles
	HelpKey       lipgloss.Style
	HelpDesc      lipgloss.Style
	HelpSeparator lipgloss.Style

	// Status bar
	StatusBar   lipgloss.Style
	StatusError lipgloss.Style
}

// NewStyles creates styles from a theme
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Padding(0, 1),

		TaskNormal: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		TaskSelected: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Highlight).
			Padding(0, 1),

		TaskDone: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Strikethrough(true).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			MarginBottom(1),

		SectionHeader: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1),

		Label: lipgloss.NewStyle().
			Foreground(t.Subtle),

		Tag: lipgloss.NewStyle().
			Foreground(t.Info).
			MarginRight(1),

		Date: lipgloss.NewStyle().
			Foreground(t.Warning),

		Points: lipgloss.NewStyle().
			Foreground(t.Secondary).
			Bold(true),

		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.Subtle),

		HelpSeparator: lipgloss.NewStyle().
			Foreground(t.Border),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.Success).
			Padding(0, 1),

		StatusError: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1),
	}
}

// Current holds the current active theme and styles
var Current = struct {
	Theme  Theme
	Styles Styles
}{
	Theme:  Nord,
	Styles: NewStyles(Nord),
}

// SetTheme changes the current theme
func SetTheme(t Theme) {
	Current.Theme = t
	Current.Styles = NewStyles(t)
}

// Available returns all available themes
func Available() []Theme {
	return []Theme{
		Nord,
		Dracula,
		Gruvbox,
		Catppuccin,
	}
}

// ByName returns a theme by its name
func ByName(name string) (Theme, bool) {
	for _, t := range Available() {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Next returns the theme after the named one, wrapping around
func Next(name string) Theme {
	themes := Available()
	for i, t := range themes {
		if t.Name == name {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}
