package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/tasktree/internal/app"
	"github.com/dori/tasktree/internal/ui"
	"github.com/dori/tasktree/internal/ui/theme"
	"github.com/spf13/cobra"
)

func newTUICmd(ro *rootOptions) *cobra.Command {
	var themeName string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the task tree interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ro.openApp(cmd, true)
			if errors.Is(err, app.ErrLocked) {
				return fmt.Errorf("%w (is tasktree already running?)", err)
			}
			if err != nil {
				return err
			}
			defer a.Close()

			if themeName == "" {
				themeName = a.Config.Theme
			}
			t, ok := theme.ByName(themeName)
			if !ok {
				return fmt.Errorf("unknown theme %q", themeName)
			}
			theme.SetTheme(t)

			p := tea.NewProgram(
				ui.NewRootModel(a, a.Config.Owner),
				tea.WithAltScreen(),
			)
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&themeName, "theme", "", "Theme (nord, dracula, gruvbox, catppuccin)")
	return cmd
}
