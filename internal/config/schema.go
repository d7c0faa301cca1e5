package config

import "time"

// Config represents the full tasktree configuration
type Config struct {
	// Where the database and lock file live
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// Empty means <data_dir>/tasktree.db
	DBPath string `yaml:"db_path" mapstructure:"db_path"`

	// Owner scopes tasks and tags; defaults to the OS user name
	Owner string `yaml:"owner" mapstructure:"owner"`

	// Color given to tags created without one
	DefaultTagColor string `yaml:"default_tag_color" mapstructure:"default_tag_color"`

	// Report missing or self-referencing parents on import
	ReportUnresolved bool `yaml:"report_unresolved" mapstructure:"report_unresolved"`

	// TUI theme name
	Theme string `yaml:"theme" mapstructure:"theme"`

	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
}

// NotifyConfig configures desktop reminders
type NotifyConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}
