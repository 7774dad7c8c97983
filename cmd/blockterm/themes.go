// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/blockterm/themes.go
// Summary: Lists available themes with palette swatches.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/framegrace/blockterm/config"
	"github.com/framegrace/blockterm/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available themes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		registry := theme.NewRegistry()
		if cfg.ThemeDir != "" {
			if err := registry.LoadDir(cfg.ThemeDir); err != nil {
				return err
			}
		}
		for _, name := range registry.Names() {
			t, err := registry.Get(name)
			if err != nil {
				continue
			}
			marker := " "
			if name == cfg.Theme {
				marker = "*"
			}
			fmt.Printf("%s %-20s fg=%s bg=%s\n", marker, name, t.Foreground, t.Background)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themesCmd)
}
