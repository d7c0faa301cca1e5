package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dori/tasktree/internal/app"
	"github.com/dori/tasktree/internal/model"
	"github.com/spf13/cobra"
)

func newAddCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Quick add a task",
		Long: `Quick add a task. Markers anywhere in the text set its fields:

  !<0-50>       importance (default 10)
  ~<1-9>        complexity (default 3)
  due:<date>    due date
  plan:<date>   planned date
  @tag          tag, repeatable
  ^Parent       parent task, ^"Parent name" for names with spaces

Dates: today, tomorrow, tom, monday..sunday, mon..sun, nextweek, 2006-01-02,
01/02/2006.`,
		Example: `  tasktree add "Buy groceries @errands !30 due:tomorrow"
  tasktree add 'Book flights ~2 plan:fri ^"Summer trip"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ro.openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			q := app.ParseQuickAdd(strings.Join(args, " "), time.Now())
			task, err := a.AddTask(q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created: %s (%s, %d points)\n", task.Name, shortID(task.ID), task.Points)
			if q.ParentName != "" {
				fmt.Fprintf(out, "Parent: %s\n", q.ParentName)
			}
			if task.PlannedDate != nil {
				fmt.Fprintf(out, "Planned: %s\n", model.FormatDate(task.PlannedDate))
			}
			if task.DueDate != nil {
				fmt.Fprintf(out, "Due: %s\n", model.FormatDate(task.DueDate))
			}
			return nil
		},
	}
}

func newDoneCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id-prefix>",
		Short: "Toggle completion of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ro.openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.ToggleDone(args[0])
			if err != nil {
				return err
			}
			if task.Completed {
				fmt.Fprintf(cmd.OutOrStdout(), "Completed: %s\n", task.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Reopened: %s\n", task.Name)
			}
			return nil
		},
	}
}

func newImportCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import tasks from CSV",
		Long: `Import tasks from a CSV file, or from stdin with "-".

Rows may appear in any order; parents are matched by name, ignoring case.
Rejected rows are reported and do not stop the import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			a, err := ro.openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.ImportCSV(in)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d task(s)\n", res.Imported)
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "warning: %v\n", w)
			}
			if len(res.Errors) > 0 {
				fmt.Fprintf(out, "%d row(s) rejected:\n", len(res.Errors))
				for _, msg := range res.ErrorMessages() {
					fmt.Fprintf(out, "  %s\n", msg)
				}
			}
			return nil
		},
	}
}

func newExportCmd(ro *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export tasks as CSV",
		Long:  "Export the task tree as CSV to a file, or to stdout when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ro.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 || args[0] == "-" {
				return a.ExportCSV(cmd.OutOrStdout(), all)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}
			if err := a.ExportCSV(f, all); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")
	return cmd
}

func newRemindCmd(ro *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send a desktop notification about overdue and due tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ro.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if dryRun {
				a.Notifier.SetEnabled(false)
			}

			d, err := a.Remind()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), d.Summary())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the summary without notifying")
	return cmd
}
