// Package config provides configuration file parsing for kale.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside Dir().
const FileName = "config.yaml"

// Config holds user settings. Zero values are replaced by defaults on Load.
type Config struct {
	HashWorkers            int           `yaml:"hash_workers"` // 0 = one per CPU
	MoveDelay              time.Duration `yaml:"move_delay"`
	StateDir               string        `yaml:"state_dir"`
	ExtraProtectedKeywords []string      `yaml:"extra_protected_keywords"`
	Watch                  WatchConfig   `yaml:"watch"`
}

// WatchConfig tunes the change watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Defaults.
const (
	DefaultMoveDelay = time.Millisecond
	DefaultDebounce  = 2 * time.Second
)

// Dir returns the kale config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/kale on Linux.
func Dir() (string, error) {
	xdg.Reload()
	if xdg.ConfigHome == "" {
		return "", fmt.Errorf("cannot determine config directory")
	}
	return filepath.Join(xdg.ConfigHome, "kale"), nil
}

// DefaultStateDir returns where the session ledger lives, respecting
// XDG_STATE_HOME. Defaults to ~/.local/state/kale on Linux.
func DefaultStateDir() (string, error) {
	xdg.Reload()
	if xdg.StateHome == "" {
		return "", fmt.Errorf("cannot determine state directory")
	}
	return filepath.Join(xdg.StateHome, "kale"), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DBPath returns the ledger database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.StateDir, "kale.db")
}

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envPattern.FindStringSubmatch(m)[1])
	})
}

// Load reads the YAML config at path. A missing file yields the defaults.
// An empty path loads {Dir()}/config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return Default(), nil
		}
		path = filepath.Join(dir, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HashWorkers < 0 {
		return fmt.Errorf("hash_workers must not be negative, got %d", c.HashWorkers)
	}
	if c.MoveDelay < 0 {
		return fmt.Errorf("move_delay must not be negative, got %s", c.MoveDelay)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.MoveDelay == 0 {
		c.MoveDelay = DefaultMoveDelay
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = DefaultDebounce
	}
	if c.StateDir == "" {
		if dir, err := DefaultStateDir(); err == nil {
			c.StateDir = dir
		} else {
			c.StateDir = filepath.Join(os.TempDir(), "kale")
		}
	}
}
