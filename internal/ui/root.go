package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasktree/internal/ui/theme"
	"github.com/dori/tasktree/internal/ui/views"
)

// RootModel is the main application model that manages views
type RootModel struct {
	keys   KeyMap
	owner  string
	width  int
	height int

	currentView View
	treeView    views.TreeView
	summaryView views.SummaryView
	helpVisible bool

	statusMsg string
}

// NewRootModel creates a new root model. owner is shown in the header.
func NewRootModel(svc views.TaskService, owner string) RootModel {
	return RootModel{
		keys:        DefaultKeyMap(),
		owner:       owner,
		currentView: ViewTree,
		treeView:    views.NewTreeView(svc, nil),
		summaryView: views.NewSummaryView(svc),
	}
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	return m.treeView.Init()
}

func (m RootModel) isInputMode() bool {
	switch m.currentView {
	case ViewTree:
		return m.treeView.IsInputMode()
	case ViewSummary:
		return m.summaryView.IsInputMode()
	}
	return false
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// header takes 1 line, footer up to 3
		contentHeight := m.height - 4
		m.treeView = m.treeView.SetSize(m.width, contentHeight)
		m.summaryView = m.summaryView.SetSize(m.width, contentHeight)

	case tea.KeyMsg:
		m.statusMsg = ""

		isInputMode := m.isInputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not in input mode
			if msg.String() == "ctrl+c" || !isInputMode {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			m.cycleTheme()
			return m, nil
		}

		if isInputMode {
			break
		}

		if m.helpVisible {
			if key.Matches(msg, m.keys.Help, m.keys.Cancel) {
				m.helpVisible = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			m.helpVisible = true
			return m, nil
		case key.Matches(msg, m.keys.TreeView):
			m.currentView = ViewTree
			return m, m.treeView.Init()
		case key.Matches(msg, m.keys.SummaryView):
			m.currentView = ViewSummary
			return m, m.summaryView.Init()
		}
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewTree:
		var next tea.Model
		next, cmd = m.treeView.Update(msg)
		m.treeView = next.(views.TreeView)
	case ViewSummary:
		var next tea.Model
		next, cmd = m.summaryView.Update(msg)
		m.summaryView = next.(views.SummaryView)
	}

	return m, cmd
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	contentHeight := m.height - 4
	if m.statusMsg != "" {
		contentHeight--
	}

	var content string
	if m.helpVisible {
		content = m.renderHelp()
	} else {
		switch m.currentView {
		case ViewTree:
			content = m.treeView.View()
		case ViewSummary:
			content = m.summaryView.View()
		}
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("tasktree")

	subtle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	viewIndicator := subtle.Render(fmt.Sprintf("[%s]", m.currentView))
	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, viewIndicator)

	rightSide := subtle.Render(fmt.Sprintf("%s · theme: %s", m.owner, t.Name))

	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if gap < 0 {
		gap = 0
	}
	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the footer/status bar
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles

	hint := func(b key.Binding) string {
		h := b.Help()
		return styles.HelpKey.Render(h.Key) + styles.HelpDesc.Render(" "+h.Desc)
	}
	join := func(bindings ...key.Binding) string {
		parts := make([]string, len(bindings))
		for i, b := range bindings {
			parts[i] = hint(b)
		}
		return strings.Join(parts, styles.HelpSeparator.Render(" │ "))
	}

	var lines []string
	if m.statusMsg != "" {
		lines = append(lines, styles.StatusBar.Render(m.statusMsg))
	}

	switch {
	case m.isInputMode():
		confirm := key.NewBinding(key.WithHelp("enter", "confirm"))
		lines = append(lines, join(confirm, m.keys.Cancel))
	case m.currentView == ViewTree:
		lines = append(lines,
			join(m.keys.Add, m.keys.AddSubtask, m.keys.Toggle, m.keys.Search, m.keys.ShowCompleted),
			join(m.keys.Collapse, m.keys.Expand, m.keys.SummaryView, m.keys.ThemeCycle, m.keys.Help),
		)
	default:
		lines = append(lines, join(m.keys.Reload, m.keys.TreeView, m.keys.ThemeCycle, m.keys.Help))
	}

	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay from the key map
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Secondary).
		MarginTop(1)
	keyStyle := lipgloss.NewStyle().
		Foreground(t.Foreground).
		Bold(true).
		Width(12)
	descStyle := lipgloss.NewStyle().
		Foreground(t.Subtle)

	var b strings.Builder
	b.WriteString(titleStyle.Render("tasktree help"))
	b.WriteString("\n")

	groups := []string{"Navigation", "Tree", "Tasks", "Filters", "Views", "General"}
	for i, bindings := range m.keys.FullHelp() {
		b.WriteString(sectionStyle.Render(groups[i]))
		b.WriteString("\n")
		for _, binding := range bindings {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(descStyle.Render(h.Desc))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Quick add"))
	b.WriteString("\n")
	markers := [][]string{
		{"!n", "Importance 0-50"},
		{"~n", "Complexity 1-9"},
		{"due:<date>", "Due date (today, tom, fri, 2024-01-15)"},
		{"plan:<date>", "Planned date"},
		{"@tag", "Add a tag"},
		{"^Parent", "File under a task, ^\"two words\" for spaces"},
	}
	for _, kv := range markers {
		b.WriteString(keyStyle.Render(kv[0]))
		b.WriteString(descStyle.Render(kv[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(descStyle.Render("Press ? or esc to close"))
	return b.String()
}

// cycleTheme switches to the next available theme
func (m *RootModel) cycleTheme() {
	next := theme.Next(theme.Current.Theme.Name)
	theme.SetTheme(next)
	m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)
}
