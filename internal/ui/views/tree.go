package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasktree/internal/app"
	"github.com/dori/tasktree/internal/model"
	"github.com/dori/tasktree/internal/notify"
	"github.com/dori/tasktree/internal/priority"
	"github.com/dori/tasktree/internal/ui/theme"
)

// TaskService is what the views need from the application. *app.App
// implements it.
type TaskService interface {
	Sections(f app.ListFilter) ([]priority.Section, error)
	AddTask(q app.QuickAdd) (*model.Task, error)
	ToggleDone(idPrefix string) (*model.Task, error)
	Digest() (notify.Digest, error)
}

// TreeMode represents the current input mode of the tree view
type TreeMode int

const (
	TreeModeNormal TreeMode = iota
	TreeModeAdd
	TreeModeSearch
)

// treeRow is one rendered line: either a category header or a task
type treeRow struct {
	header   bool
	category priority.Category
	count    int

	task  *model.Task
	depth int
}

// TreeView shows the ordered task tree grouped by category
type TreeView struct {
	svc    TaskService
	now    func() time.Time
	width  int
	height int

	sections     []priority.Section
	rows         []treeRow
	cursor       int
	scrollOffset int
	collapsed    map[string]bool

	mode          TreeMode
	input         textinput.Model
	searchFilter  string
	showCompleted bool
	focusID       string // task to put the cursor on after the next load
	statusMsg     string
}

// NewTreeView creates a new tree view. A nil now means time.Now.
func NewTreeView(svc TaskService, now func() time.Time) TreeView {
	if now == nil {
		now = time.Now
	}

	ti := textinput.New()
	ti.Placeholder = "Task name !importance ~complexity due:fri plan:tom @tag ^Parent"
	ti.CharLimit = 256

	return TreeView{
		svc:       svc,
		now:       now,
		collapsed: make(map[string]bool),
		input:     ti,
	}
}

// Init loads the tree
func (v TreeView) Init() tea.Cmd {
	return v.loadSections
}

// IsInputMode returns true when the view is capturing text input
func (v TreeView) IsInputMode() bool {
	return v.mode == TreeModeAdd || v.mode == TreeModeSearch
}

// SetSize updates the view dimensions
func (v TreeView) SetSize(width, height int) TreeView {
	v.width = width
	v.height = height
	v.input.Width = width - 4
	return v
}

// SelectedTask returns the task under the cursor, if any
func (v TreeView) SelectedTask() *model.Task {
	if v.cursor < 0 || v.cursor >= len(v.rows) || v.rows[v.cursor].header {
		return nil
	}
	return v.rows[v.cursor].task
}

func (v TreeView) filter() app.ListFilter {
	return app.ListFilter{
		IncludeCompleted: v.showCompleted,
		Search:           v.searchFilter,
	}
}

type sectionsLoadedMsg struct {
	sections []priority.Section
	err      error
}

type taskAddedMsg struct {
	task *model.Task
	err  error
}

type taskToggledMsg struct {
	task *model.Task
	err  error
}

func (v TreeView) loadSections() tea.Msg {
	sections, err := v.svc.Sections(v.filter())
	return sectionsLoadedMsg{sections: sections, err: err}
}

func (v TreeView) addTask(text string) tea.Cmd {
	return func() tea.Msg {
		task, err := v.svc.AddTask(app.ParseQuickAdd(text, v.now()))
		return taskAddedMsg{task: task, err: err}
	}
}

func (v TreeView) toggleTask(id string) tea.Cmd {
	return func() tea.Msg {
		task, err := v.svc.ToggleDone(id)
		return taskToggledMsg{task: task, err: err}
	}
}

// flattenSections turns sections into display rows. Subtasks of collapsed
// tasks are left out.
func flattenSections(sections []priority.Section, collapsed map[string]bool) []treeRow {
	var rows []treeRow
	for si := range sections {
		s := &sections[si]
		rows = append(rows, treeRow{header: true, category: s.Category, count: len(s.Tasks)})
		for ti := range s.Tasks {
			s.Tasks[ti].Walk(func(task *model.Task, depth int) bool {
				rows = append(rows, treeRow{task: task, depth: depth})
				return !collapsed[task.ID]
			})
		}
	}
	return rows
}

func (v *TreeView) rebuild() {
	var selected string
	if t := v.SelectedTask(); t != nil {
		selected = t.ID
	}
	if v.focusID != "" {
		selected = v.focusID
		v.focusID = ""
	}

	oldCursor := v.cursor
	v.rows = flattenSections(v.sections, v.collapsed)

	for i, r := range v.rows {
		if !r.header && r.task.ID == selected {
			v.cursor = i
			v.ensureCursorVisible()
			return
		}
	}

	// the selected task is gone, stay near where it was
	v.cursor = min(oldCursor, len(v.rows)-1)
	v.moveCursor(0)
	v.ensureCursorVisible()
}

// moveCursor moves by delta task rows, skipping headers and clamping at
// both ends. From a header the first step lands on the task below it.
func (v *TreeView) moveCursor(delta int) {
	var taskRows []int
	current := -1
	for i, r := range v.rows {
		if r.header {
			continue
		}
		if i <= v.cursor {
			current = len(taskRows)
		}
		taskRows = append(taskRows, i)
	}
	if len(taskRows) == 0 {
		v.cursor = 0
		return
	}
	if current < 0 {
		current = 0
		if delta > 0 {
			delta--
		}
	}

	target := current + delta
	if target < 0 {
		target = 0
	}
	if target >= len(taskRows) {
		target = len(taskRows) - 1
	}
	v.cursor = taskRows[target]
}

// visibleRowCount returns how many rows fit in the viewport
func (v TreeView) visibleRowCount() int {
	available := v.height - 4
	if available < 1 {
		available = 1
	}
	return available
}

// ensureCursorVisible adjusts scrollOffset to keep cursor in view
func (v *TreeView) ensureCursorVisible() {
	visible := v.visibleRowCount()

	if v.cursor < v.scrollOffset {
		v.scrollOffset = v.cursor
		// keep the section header above the first task in sight
		if v.scrollOffset > 0 && v.rows[v.scrollOffset-1].header {
			v.scrollOffset--
		}
	}
	if v.cursor >= v.scrollOffset+visible {
		v.scrollOffset = v.cursor - visible + 1
	}

	maxOffset := len(v.rows) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if v.scrollOffset > maxOffset {
		v.scrollOffset = maxOffset
	}
	if v.scrollOffset < 0 {
		v.scrollOffset = 0
	}
}

// Update handles messages for the tree view
func (v TreeView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sectionsLoadedMsg:
		if msg.err != nil {
			v.statusMsg = fmt.Sprintf("Error loading tasks: %v", msg.err)
			return v, nil
		}
		v.sections = msg.sections
		v.rebuild()
		return v, nil

	case taskAddedMsg:
		if msg.err != nil {
			v.statusMsg = fmt.Sprintf("Could not add task: %v", msg.err)
			return v, nil
		}
		v.statusMsg = fmt.Sprintf("Added %q (%d points)", msg.task.Name, msg.task.Points)
		v.focusID = msg.task.ID
		if msg.task.ParentID != nil {
			delete(v.collapsed, *msg.task.ParentID)
		}
		return v, v.loadSections

	case taskToggledMsg:
		if msg.err != nil {
			v.statusMsg = fmt.Sprintf("Could not update task: %v", msg.err)
			return v, nil
		}
		if msg.task.Completed {
			v.statusMsg = fmt.Sprintf("Completed %q", msg.task.Name)
		} else {
			v.statusMsg = fmt.Sprintf("Reopened %q", msg.task.Name)
		}
		return v, v.loadSections

	case tea.KeyMsg:
		switch v.mode {
		case TreeModeAdd:
			return v.handleAddMode(msg)
		case TreeModeSearch:
			return v.handleSearchMode(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	if v.IsInputMode() {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

// handleNormalMode handles keypresses in normal mode
func (v TreeView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.statusMsg = ""

	switch msg.String() {
	case "up", "k":
		v.moveCursor(-1)
	case "down", "j":
		v.moveCursor(1)
	case "pgup", "ctrl+u":
		v.moveCursor(-v.visibleRowCount())
	case "pgdown", "ctrl+d":
		v.moveCursor(v.visibleRowCount())
	case "g", "home":
		v.cursor = 0
		v.moveCursor(0)
	case "G", "end":
		v.cursor = len(v.rows) - 1
		v.moveCursor(0)

	case "left", "h":
		task := v.SelectedTask()
		if task == nil {
			break
		}
		if len(task.Subtasks) > 0 && !v.collapsed[task.ID] {
			v.collapsed[task.ID] = true
			v.rebuild()
		} else if task.ParentID != nil {
			v.focusID = *task.ParentID
			v.rebuild()
		}
	case "right", "l":
		if task := v.SelectedTask(); task != nil && v.collapsed[task.ID] {
			delete(v.collapsed, task.ID)
			v.rebuild()
		}
	case "enter":
		if task := v.SelectedTask(); task != nil && len(task.Subtasks) > 0 {
			v.collapsed[task.ID] = !v.collapsed[task.ID]
			v.rebuild()
		}

	case "tab", "x":
		if task := v.SelectedTask(); task != nil {
			return v, v.toggleTask(task.ID)
		}

	case "a":
		v.mode = TreeModeAdd
		v.input.Placeholder = "Task name !importance ~complexity due:fri plan:tom @tag ^Parent"
		v.input.SetValue("")
		return v, v.input.Focus()
	case "A":
		// add a subtask of the selected task
		v.mode = TreeModeAdd
		v.input.Placeholder = "Subtask name"
		v.input.SetValue("")
		if task := v.SelectedTask(); task != nil {
			v.input.SetValue(" " + parentMarker(task.Name))
			v.input.CursorStart()
		}
		return v, v.input.Focus()

	case "/":
		v.mode = TreeModeSearch
		v.input.Placeholder = "Search names and notes..."
		v.input.SetValue(v.searchFilter)
		v.input.CursorEnd()
		return v, v.input.Focus()
	case "esc":
		if v.searchFilter != "" {
			v.searchFilter = ""
			return v, v.loadSections
		}

	case "c":
		v.showCompleted = !v.showCompleted
		if v.showCompleted {
			v.statusMsg = "Showing completed tasks"
		} else {
			v.statusMsg = "Hiding completed tasks"
		}
		return v, v.loadSections
	case "r":
		return v, v.loadSections
	}

	v.ensureCursorVisible()
	return v, nil
}

// parentMarker renders the quick-add marker that files a task under name
func parentMarker(name string) string {
	if strings.ContainsAny(name, " \t") {
		return `^"` + name + `"`
	}
	return "^" + name
}

// handleAddMode handles keypresses when adding a task
func (v TreeView) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(v.input.Value())
		if text != "" {
			v.mode = TreeModeNormal
			v.input.Blur()
			return v, v.addTask(text)
		}
	case "esc":
		v.mode = TreeModeNormal
		v.input.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleSearchMode handles keypresses in search mode
func (v TreeView) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		v.searchFilter = strings.TrimSpace(v.input.Value())
		v.mode = TreeModeNormal
		v.input.Blur()
		return v, v.loadSections

	case "esc":
		// cancel editing but keep the current filter
		v.mode = TreeModeNormal
		v.input.Blur()
		v.input.SetValue(v.searchFilter)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// View renders the tree view
func (v TreeView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder

	switch v.mode {
	case TreeModeAdd:
		b.WriteString(styles.Input.Render(v.input.View()))
		b.WriteString("\n\n")
	case TreeModeSearch:
		b.WriteString(lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("/"))
		b.WriteString(v.input.View())
		b.WriteString("\n\n")
	default:
		if v.searchFilter != "" {
			filterStyle := lipgloss.NewStyle().Foreground(t.Info).Italic(true)
			hint := lipgloss.NewStyle().Foreground(t.Subtle)
			b.WriteString(filterStyle.Render(fmt.Sprintf("search: %q", v.searchFilter)))
			b.WriteString(hint.Render(" (esc to clear)"))
			b.WriteString("\n\n")
		}
	}

	if len(v.rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(t.Subtle).Italic(true)
		if v.searchFilter != "" {
			b.WriteString(empty.Render("No tasks match the search."))
		} else {
			b.WriteString(empty.Render("No tasks yet. Press a to add one."))
		}
	} else {
		today := priority.Day(v.now())
		end := v.scrollOffset + v.visibleRowCount()
		if end > len(v.rows) {
			end = len(v.rows)
		}
		for i := v.scrollOffset; i < end; i++ {
			r := v.rows[i]
			if r.header {
				b.WriteString(renderSectionHeader(r.category, r.count))
			} else {
				b.WriteString(v.renderTask(r, i == v.cursor, today))
			}
			if i < end-1 {
				b.WriteString("\n")
			}
		}
	}

	if v.statusMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render(v.statusMsg))
	}

	return b.String()
}

func renderSectionHeader(c priority.Category, count int) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	title := styles.SectionHeader.Foreground(t.CategoryColor(c)).Render(c.String())
	return title + styles.Label.Render(fmt.Sprintf("(%d)", count))
}

func (v TreeView) renderTask(r treeRow, isCursor bool, today time.Time) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles
	task := r.task

	indent := strings.Repeat("    ", r.depth)

	expander := " "
	if len(task.Subtasks) > 0 {
		if v.collapsed[task.ID] {
			expander = "▶"
		} else {
			expander = "▼"
		}
	} else if r.depth > 0 {
		expander = "└"
	}

	checkbox := "[ ]"
	if task.Completed {
		checkbox = "[x]"
	}

	cursor := " "
	if isCursor {
		cursor = ">"
	}

	points := styles.Points.Render(fmt.Sprintf("%4d", task.Points))

	nameStyle := styles.TaskNormal
	if task.Completed {
		nameStyle = styles.TaskDone
	}
	if isCursor {
		nameStyle = styles.TaskSelected
	}
	name := nameStyle.Render(task.Name)

	var metadata []string
	if dates := renderDates(task, today); dates != "" {
		metadata = append(metadata, dates)
	}
	if len(task.Tags) > 0 {
		var tags []string
		for _, tag := range task.Tags {
			tagStyle := lipgloss.NewStyle().Foreground(t.Info)
			if tag.Color != "" {
				tagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(tag.Color))
			}
			tags = append(tags, tagStyle.Render(tag.DisplayName()))
		}
		metadata = append(metadata, strings.Join(tags, " "))
	}
	if task.Link != "" {
		metadata = append(metadata, lipgloss.NewStyle().Foreground(t.Subtle).Render("↗"))
	}

	line := fmt.Sprintf("%s%s%s %s %s %s", cursor, indent, expander, checkbox, points, name)
	if len(metadata) > 0 {
		line += " " + strings.Join(metadata, " ")
	}
	if v.width > 0 && lipgloss.Width(line) > v.width {
		line = lipgloss.NewStyle().MaxWidth(v.width).Render(line)
	}
	return line
}

// renderDates shows the planned and due days relative to today
func renderDates(task *model.Task, today time.Time) string {
	t := theme.Current.Theme

	var parts []string
	if task.PlannedDate != nil {
		style := lipgloss.NewStyle().Foreground(t.Subtle)
		parts = append(parts, style.Render("plan "+formatDay(priority.Day(*task.PlannedDate), today)))
	}
	if task.DueDate != nil {
		due := priority.Day(*task.DueDate)
		style := lipgloss.NewStyle().Foreground(t.Subtle)
		switch {
		case task.Completed:
		case due.Before(today):
			style = lipgloss.NewStyle().Foreground(t.Error)
		case due.Equal(today):
			style = lipgloss.NewStyle().Foreground(t.Warning)
		}
		parts = append(parts, style.Render("due "+formatDay(due, today)))
	}
	return strings.Join(parts, " ")
}

// formatDay formats a calendar day relative to today. Both are day values
// as produced by priority.Day.
func formatDay(day, today time.Time) string {
	days := int(day.Sub(today).Hours() / 24)

	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	case days < 7:
		return day.Format("Mon")
	case day.Year() == today.Year():
		return day.Format("Jan 2")
	default:
		return day.Format("Jan 2 2006")
	}
}
