// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/blockterm/run.go
// Summary: Interactive session: pty host plus tcell viewer.

package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/framegrace/blockterm/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive block session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("run requires a terminal")
		}

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		eng, err := buildEngine(cfg)
		if err != nil {
			return err
		}

		sessionID := uuid.NewString()
		defer eng.Teardown(sessionID)

		screen, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		if err := screen.Init(); err != nil {
			return err
		}
		defer screen.Fini()

		host := newShellHost(eng, sessionID)
		view := newViewer(screen, eng, host, sessionID)

		// Pump host notifications into the tcell event loop.
		done := make(chan struct{})
		defer close(done)
		go func() {
			for {
				select {
				case <-done:
					return
				case <-host.notify:
					_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
				}
			}
		}()

		view.draw()
		for {
			ev := screen.PollEvent()
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !view.handleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventInterrupt:
				// Output arrived; fall through to redraw.
			}
			view.draw()
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
