// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Engine configuration with defaults and optional TOML overrides.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the engine's runtime configuration.
type Config struct {
	// Theme names the active palette. Must exist in the theme registry.
	Theme string `toml:"theme"`

	// ThemeDir holds extra user themes as *.toml files.
	ThemeDir string `toml:"theme_dir"`

	Search SearchConfig `toml:"search"`
	Log    LogConfig    `toml:"log"`
}

// SearchConfig controls the block search index.
type SearchConfig struct {
	Enabled bool `toml:"enabled"`
	// DSN overrides the in-memory default; leave empty for no persistence.
	DSN string `toml:"dsn"`
}

// LogConfig controls engine logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Theme:  "blockterm-dark",
		Search: SearchConfig{Enabled: true},
		Log:    LogConfig{Level: "info"},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "blockterm", "config.toml")
}

// Load reads the file at path over the defaults. A missing file is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Theme == "" {
		cfg.Theme = Default().Theme
	}
	return cfg, nil
}
