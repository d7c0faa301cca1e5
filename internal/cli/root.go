// Package cli implements the tasktree command line
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dori/tasktree/internal/app"
	"github.com/dori/tasktree/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions carries the persistent flags down to the subcommands
type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tasktree",
		Short: "tasktree - a prioritized tree of tasks",
		Long: `tasktree keeps tasks as a tree, scores them by importance and complexity,
and lists them in the order you should work on them.

Run without a subcommand to list the open tasks.`,
		Version:       version,
		RunE:          newListCmd(opts).RunE, // Default action is list
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default "+config.GlobalConfigPath()+")")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newAddCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newDoneCmd(opts))
	cmd.AddCommand(newRemindCmd(opts))
	cmd.AddCommand(newTUICmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd(version))

	return cmd
}

// Execute runs the root command
func Execute(version string) error {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// logger writes diagnostics to stderr with --verbose and discards them otherwise
func (o *rootOptions) logger(cmd *cobra.Command) *log.Logger {
	if !o.verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "tasktree: ", log.Ltime)
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openApp loads the config and opens the database. Commands that write take
// the single-writer lock.
func (o *rootOptions) openApp(cmd *cobra.Command, lock bool) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.Options{Lock: lock, Logger: o.logger(cmd)})
}
