package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TASKTREE_OWNER
const EnvPrefix = "TASKTREE"

// Load builds the configuration from defaults, the global config file, an
// optional explicit file and TASKTREE_* environment variables, in that
// order. A missing global file is fine; a missing explicit file is not.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadFile(GlobalConfigPath(), cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", GlobalConfigPath(), err)
	}

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

// applyEnv overlays TASKTREE_* variables. Viper only resolves environment
// keys it already knows, so every key is registered with its current value.
func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("owner", cfg.Owner)
	v.SetDefault("default_tag_color", cfg.DefaultTagColor)
	v.SetDefault("report_unresolved", cfg.ReportUnresolved)
	v.SetDefault("theme", cfg.Theme)
	v.SetDefault("notify.enabled", cfg.Notify.Enabled)
	v.SetDefault("notify.timeout", cfg.Notify.Timeout)

	return v.Unmarshal(cfg)
}

func (c *Config) normalize() {
	c.DataDir = expandHome(c.DataDir)
	c.DBPath = expandHome(c.DBPath)
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "tasktree.db")
	}
	if c.Owner == "" {
		c.Owner = defaultOwner()
	}
	c.Theme = strings.ToLower(c.Theme)
}

// Validate reports settings that cannot work
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.Notify.Timeout < 0 {
		errs = append(errs, fmt.Errorf("notify.timeout must not be negative, got %s", c.Notify.Timeout))
	}
	if c.DefaultTagColor != "" && !strings.HasPrefix(c.DefaultTagColor, "#") {
		errs = append(errs, fmt.Errorf("default_tag_color must be a #hex color, got %q", c.DefaultTagColor))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "tasktree", "config.yaml")
}
