// Package config loads chatNERD configuration from .chatnerd/config.yaml,
// applies defaults, and honors environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all chatNERD configuration.
type Config struct {
	// Export format for new records: md or json
	Format string `yaml:"format"`

	// Records directory relative to the workspace (default .cursor/chat)
	RecordsDir string `yaml:"records_dir"`

	// Watcher settings
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// WatchConfig configures the inbox watcher.
type WatchConfig struct {
	// Inbox directory relative to the workspace (default .chatnerd/inbox)
	InboxDir string `yaml:"inbox_dir"`

	// Debounce window before a dropped file is captured
	Debounce string `yaml:"debounce"`

	// Delete inbox files after a successful capture
	RemoveAfterCapture bool `yaml:"remove_after_capture"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Format:     "md",
		RecordsDir: ".cursor/chat",
		Watch: WatchConfig{
			InboxDir:           ".chatnerd/inbox",
			Debounce:           "500ms",
			RemoveAfterCapture: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Path returns the config file location for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, ".chatnerd", "config.yaml")
}

// Load reads the config for a workspace. A missing file yields the defaults;
// a present but malformed file is an error.
func Load(workspace string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config back to the workspace, creating .chatnerd/ on demand.
func Save(workspace string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := Path(workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// applyDefaults backfills zero values after an explicit config load.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.RecordsDir == "" {
		c.RecordsDir = d.RecordsDir
	}
	if c.Watch.InboxDir == "" {
		c.Watch.InboxDir = d.Watch.InboxDir
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = d.Watch.Debounce
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// applyEnvOverrides applies CHATNERD_* environment variables on top of the
// loaded values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CHATNERD_FORMAT"); v != "" {
		c.Format = v
	}
	if v := os.Getenv("CHATNERD_RECORDS_DIR"); v != "" {
		c.RecordsDir = v
	}
	if v := os.Getenv("CHATNERD_INBOX_DIR"); v != "" {
		c.Watch.InboxDir = v
	}
	if v := os.Getenv("CHATNERD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// DebounceDuration parses the configured debounce window, falling back to the
// default on malformed input.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
