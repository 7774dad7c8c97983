// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/blockterm/main.go
// Summary: CLI entry point: command tree and shared engine construction.

package main

import (
	"fmt"
	"os"

	clog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/framegrace/blockterm/config"
	"github.com/framegrace/blockterm/engine"
	"github.com/framegrace/blockterm/search"
	"github.com/framegrace/blockterm/theme"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "blockterm",
	Short: "Block-oriented terminal emulation engine",
	Long: `blockterm parses shell output into styled command blocks.

The run subcommand hosts an interactive session where every submitted
command becomes a collapsible block with its own status and output.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file")
}

// buildEngine assembles an engine from the loaded configuration.
func buildEngine(cfg config.Config) (*engine.Engine, error) {
	registry := theme.NewRegistry()
	if cfg.ThemeDir != "" {
		if err := registry.LoadDir(cfg.ThemeDir); err != nil {
			return nil, err
		}
	}

	logger := clog.NewWithOptions(os.Stderr, clog.Options{
		Prefix: "blockterm",
		Level:  parseLogLevel(cfg.Log.Level),
	})

	opts := []engine.Option{
		engine.WithRegistry(registry),
		engine.WithLogger(logger),
	}
	if cfg.Search.Enabled {
		ix, err := search.Open(cfg.Search.DSN)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithSearchIndex(ix))
	}

	eng := engine.New(opts...)
	if err := eng.SetTheme(cfg.Theme); err != nil {
		return nil, fmt.Errorf("theme %q: %w", cfg.Theme, err)
	}
	return eng, nil
}

func parseLogLevel(level string) clog.Level {
	switch level {
	case "debug":
		return clog.DebugLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}
