package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasktree/internal/app"
	"github.com/dori/tasktree/internal/model"
	"github.com/dori/tasktree/internal/priority"
	"github.com/dori/tasktree/internal/ui/theme"
	"github.com/spf13/cobra"
)

type listOptions struct {
	all    bool
	tag    string
	search string
	plain  bool
}

func newListCmd(ro *rootOptions) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks in priority order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, ro, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "Include completed tasks")
	cmd.Flags().StringVarP(&opts.tag, "tag", "t", "", "Only trees containing a task with this tag")
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "Only trees containing a task whose name or note matches")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Plain text without colors")

	return cmd
}

func runList(cmd *cobra.Command, ro *rootOptions, opts listOptions) error {
	a, err := ro.openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	sections, err := a.Sections(app.ListFilter{
		IncludeCompleted: opts.all,
		Tag:              strings.TrimPrefix(opts.tag, "@"),
		Search:           opts.search,
	})
	if err != nil {
		return err
	}

	r := sectionRenderer{plain: opts.plain}
	if !opts.plain {
		if t, ok := theme.ByName(a.Config.Theme); ok {
			r.theme = t
		} else {
			r.theme = theme.Nord
		}
	}
	r.render(cmd.OutOrStdout(), sections)
	return nil
}

// sectionRenderer prints grouped task trees, one task per line
type sectionRenderer struct {
	plain bool
	theme theme.Theme
}

func (r sectionRenderer) render(w io.Writer, sections []priority.Section) {
	if len(sections) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	for i := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		s := &sections[i]
		fmt.Fprintln(w, r.title(s))
		for ti := range s.Tasks {
			s.Tasks[ti].Walk(func(t *model.Task, depth int) bool {
				fmt.Fprintln(w, r.line(t, depth))
				return true
			})
		}
	}
}

func (r sectionRenderer) title(s *priority.Section) string {
	count := fmt.Sprintf("(%d)", len(s.Tasks))
	if r.plain {
		return fmt.Sprintf("== %s %s", s.Category, count)
	}
	badge := lipgloss.NewStyle().
		Background(r.theme.CategoryColor(s.Category)).
		Foreground(r.theme.Background).
		Bold(true).
		Padding(0, 1).
		Render(s.Category.String())
	return badge + " " + lipgloss.NewStyle().Foreground(r.theme.Subtle).Render(count)
}

func (r sectionRenderer) line(t *model.Task, depth int) string {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}

	var details []string
	if t.PlannedDate != nil {
		details = append(details, "plan:"+model.FormatDate(t.PlannedDate))
	}
	if t.DueDate != nil {
		details = append(details, "due:"+model.FormatDate(t.DueDate))
	}
	for i := range t.Tags {
		details = append(details, t.Tags[i].DisplayName())
	}

	indent := strings.Repeat("  ", depth)
	id := shortID(t.ID)
	points := fmt.Sprintf("%4d", t.Points)
	name := t.Name
	extra := strings.Join(details, " ")

	if !r.plain {
		subtle := lipgloss.NewStyle().Foreground(r.theme.Subtle)
		id = subtle.Render(id)
		points = lipgloss.NewStyle().Foreground(r.theme.Secondary).Bold(true).Render(points)
		if t.Completed {
			name = lipgloss.NewStyle().Foreground(r.theme.Subtle).Strikethrough(true).Render(name)
		}
		extra = subtle.Render(extra)
	}

	line := fmt.Sprintf("%s%s %s %s  %s", indent, box, id, points, name)
	if len(details) > 0 {
		line += "  " + extra
	}
	return line
}

// shortID is the ID prefix shown in listings and accepted by done
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
