package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasktree/internal/app"
	"github.com/dori/tasktree/internal/model"
	"github.com/dori/tasktree/internal/notify"
	"github.com/dori/tasktree/internal/priority"
	"github.com/dori/tasktree/internal/ui/theme"
)

// CategoryStats aggregates one category of the open task tree
type CategoryStats struct {
	Category priority.Category
	Trees    int // top-level tasks
	Tasks    int // every task in those trees
	Points   int
}

// Summarize aggregates sections per category, in section order
func Summarize(sections []priority.Section) []CategoryStats {
	stats := make([]CategoryStats, 0, len(sections))
	for si := range sections {
		cs := CategoryStats{Category: sections[si].Category, Trees: len(sections[si].Tasks)}
		for ti := range sections[si].Tasks {
			sections[si].Tasks[ti].Walk(func(task *model.Task, _ int) bool {
				cs.Tasks++
				cs.Points += task.Points
				return true
			})
		}
		stats = append(stats, cs)
	}
	return stats
}

// SummaryView shows what is on the plate per category
type SummaryView struct {
	svc    TaskService
	width  int
	height int

	stats     []CategoryStats
	digest    notify.Digest
	statusMsg string
}

type summaryLoadedMsg struct {
	stats  []CategoryStats
	digest notify.Digest
	err    error
}

// NewSummaryView creates a new summary view
func NewSummaryView(svc TaskService) SummaryView {
	return SummaryView{svc: svc}
}

// Init loads the summary
func (v SummaryView) Init() tea.Cmd {
	return v.loadSummary
}

// SetSize sets the view dimensions
func (v SummaryView) SetSize(width, height int) SummaryView {
	v.width = width
	v.height = height
	return v
}

// IsInputMode returns whether the view is in input mode
func (v SummaryView) IsInputMode() bool {
	return false
}

func (v SummaryView) loadSummary() tea.Msg {
	sections, err := v.svc.Sections(app.ListFilter{})
	if err != nil {
		return summaryLoadedMsg{err: err}
	}
	digest, err := v.svc.Digest()
	if err != nil {
		return summaryLoadedMsg{err: err}
	}
	return summaryLoadedMsg{stats: Summarize(sections), digest: digest}
}

// Update handles messages
func (v SummaryView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryLoadedMsg:
		if msg.err != nil {
			v.statusMsg = fmt.Sprintf("Error loading summary: %v", msg.err)
			return v, nil
		}
		v.stats = msg.stats
		v.digest = msg.digest
		v.statusMsg = ""
		return v, nil

	case tea.KeyMsg:
		if msg.String() == "r" {
			return v, v.loadSummary
		}
	}

	return v, nil
}

// View renders the summary view
func (v SummaryView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	t := theme.Current.Theme

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	sections = append(sections, titleStyle.Render("Summary ─ open tasks"))
	sections = append(sections, "")

	// Digest cards (side by side)
	cardStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 2).
		Width(18)
	labelStyle := lipgloss.NewStyle().Foreground(t.Subtle)
	card := func(value int, label string, color lipgloss.Color) string {
		valueStyle := lipgloss.NewStyle().Bold(true).Foreground(color)
		return cardStyle.Render(valueStyle.Render(fmt.Sprintf("%d", value)) + "\n" + labelStyle.Render(label))
	}

	cardRow := lipgloss.JoinHorizontal(lipgloss.Top,
		card(v.digest.Overdue, "Overdue", t.Overdue),
		card(v.digest.Today, "Today", t.Today),
		card(v.digest.Tomorrow, "Tomorrow", t.Tomorrow),
	)
	sections = append(sections, cardRow)
	sections = append(sections, "")

	if len(v.digest.Top) > 0 {
		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)
		lines := []string{headerStyle.Render("Up next")}
		for _, name := range v.digest.Top {
			lines = append(lines, "  • "+name)
		}
		sections = append(sections, strings.Join(lines, "\n"))
		sections = append(sections, "")
	}

	if len(v.stats) > 0 {
		sections = append(sections, v.renderCategoryPoints())
		sections = append(sections, "")
	} else {
		empty := lipgloss.NewStyle().Foreground(t.Subtle).Italic(true)
		sections = append(sections, empty.Render("Nothing open."))
	}

	if v.statusMsg != "" {
		sections = append(sections, theme.Current.Styles.StatusError.Render(v.statusMsg))
	}

	return strings.Join(sections, "\n")
}

// renderCategoryPoints renders open points per category as bars
func (v SummaryView) renderCategoryPoints() string {
	t := theme.Current.Theme

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)

	var lines []string
	lines = append(lines, headerStyle.Render("Points by category"))

	maxPoints := 1
	for _, cs := range v.stats {
		if cs.Points > maxPoints {
			maxPoints = cs.Points
		}
	}

	barMaxWidth := 30
	for _, cs := range v.stats {
		ratio := float64(cs.Points) / float64(maxPoints)
		barWidth := int(ratio * float64(barMaxWidth))
		if barWidth < 1 && cs.Points > 0 {
			barWidth = 1
		}

		bar := lipgloss.NewStyle().Foreground(t.CategoryColor(cs.Category)).Render(strings.Repeat("█", barWidth))
		pad := strings.Repeat(" ", barMaxWidth-barWidth)
		line := fmt.Sprintf("%-10s %s%s %5d pts  %d tasks", cs.Category, bar, pad, cs.Points, cs.Tasks)
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}
