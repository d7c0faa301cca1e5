package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:         DefaultDataDir(),
		Owner:           defaultOwner(),
		DefaultTagColor: "#88C0D0",
		Theme:           "nord",
		Notify: NotifyConfig{
			Enabled: true,
			Timeout: 10 * time.Second,
		},
	}
}

// DefaultDataDir returns the default data directory path
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tasktree"
	}
	return filepath.Join(home, ".local", "share", "tasktree")
}

func defaultOwner() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "default"
}

// WriteDefault writes the default configuration to path, creating its
// directory. The owner is left out so it keeps following the OS user.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	cfg.Owner = ""

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := "# tasktree configuration\n" +
		"# Environment variables TASKTREE_<KEY> override these values,\n" +
		"# e.g. TASKTREE_OWNER or TASKTREE_NOTIFY_ENABLED.\n" + string(data)
	return os.WriteFile(path, []byte(content), 0644)
}
