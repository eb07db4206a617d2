package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tracetower/pkg/pipeline"
)

// =============================================================================
// User Configuration File
// =============================================================================

// Config is the optional user configuration, read from
// ~/.config/tracetower/config.toml. Every field has a working zero
// value; a missing file is not an error.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Serve  ServeConfig  `toml:"serve"`
}

// LayoutConfig overrides the built-in layout defaults.
type LayoutConfig struct {
	WidthPx   float64 `toml:"width"`
	RowHeight float64 `toml:"row_height"`
	BinCount  int     `toml:"bin_count"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	Listen   string `toml:"listen"`
	RedisURL string `toml:"redis_url"`
	MongoURI string `toml:"mongo_uri"`
}

// configPath returns the config file path using XDG standard
// (~/.config/tracetower/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadConfig reads the config file at path, or the default location
// when path is empty. A missing file yields an empty config.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = configPath()
		if err != nil {
			return &Config{}, nil
		}
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return &Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyLayout copies the config file's layout overrides onto pipeline
// options that still carry their defaults.
func (c *Config) applyLayout(opts *pipeline.Options) {
	if c == nil {
		return
	}
	if c.Layout.WidthPx > 0 {
		opts.WidthPx = c.Layout.WidthPx
	}
	if c.Layout.RowHeight > 0 {
		opts.RowHeight = c.Layout.RowHeight
	}
	if c.Layout.BinCount > 0 {
		opts.BinCount = c.Layout.BinCount
	}
}
