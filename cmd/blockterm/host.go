// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/blockterm/host.go
// Summary: Pty-backed process host feeding the engine's output router.
// Usage: Plays the external process layer; the engine only ever sees
// encoded notifications.

package main

import (
	"encoding/base64"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/creack/pty"

	"github.com/framegrace/blockterm/engine"
	"github.com/framegrace/blockterm/session"
)

// shellHost runs submitted commands on a pty, one at a time, and forwards
// the chunks to the engine as base64-encoded output notifications followed
// by a command-end carrying the exit code.
type shellHost struct {
	eng       *engine.Engine
	sessionID string
	shell     string

	mu  sync.Mutex
	cwd string

	// notify is poked after every dispatched notification so the viewer can
	// redraw without polling.
	notify chan struct{}
}

func newShellHost(eng *engine.Engine, sessionID string) *shellHost {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	cwd, _ := os.Getwd()
	h := &shellHost{
		eng:       eng,
		sessionID: sessionID,
		shell:     shell,
		cwd:       cwd,
		notify:    make(chan struct{}, 1),
	}
	h.eng.Dispatch(engine.WorkingDirChanged(sessionID, cwd))
	h.probeVCS()
	return h
}

func (h *shellHost) dispatch(n engine.Notification) {
	h.eng.Dispatch(n)
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Submit creates the block and runs the command asynchronously. The returned
// id is empty for blank input.
func (h *shellHost) Submit(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	// cd is handled in the host so the working directory persists across
	// commands, each of which otherwise runs in its own shell.
	if target, ok := cdTarget(text); ok {
		return h.changeDir(text, target)
	}

	blockID := h.eng.SubmitCommand(h.sessionID, text)
	go h.run(blockID, text)
	return blockID
}

func (h *shellHost) run(blockID, text string) {
	h.mu.Lock()
	dir := h.cwd
	h.mu.Unlock()

	cmd := exec.Command(h.shell, "-c", text)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	f, err := pty.Start(cmd)
	if err != nil {
		h.dispatch(engine.Error(h.sessionID, err.Error()))
		return
	}
	defer f.Close()

	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			payload := base64.StdEncoding.EncodeToString(buf[:n])
			h.dispatch(engine.Output(h.sessionID, blockID, payload))
		}
		if err != nil {
			// A pty read error is how command exit presents itself.
			break
		}
	}

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		exitCode = 1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}
	h.dispatch(engine.CommandEnd(h.sessionID, blockID, exitCode))
	h.probeVCS()
}

// changeDir resolves a cd in the host, producing a synthetic block so the
// action still shows up in the session's history of work.
func (h *shellHost) changeDir(text, target string) string {
	blockID := h.eng.SubmitCommand(h.sessionID, text)

	h.mu.Lock()
	base := h.cwd
	h.mu.Unlock()

	resolved := target
	if resolved == "" || resolved == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			resolved = home
		}
	} else if !strings.HasPrefix(resolved, "/") {
		resolved = base + "/" + resolved
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		h.dispatch(engine.Error(h.sessionID, "cd: no such directory: "+target))
		return blockID
	}

	h.mu.Lock()
	h.cwd = resolved
	h.mu.Unlock()

	h.dispatch(engine.CommandEnd(h.sessionID, blockID, 0))
	h.dispatch(engine.WorkingDirChanged(h.sessionID, resolved))
	h.probeVCS()
	return blockID
}

// probeVCS inspects the working directory with git and reports the result.
// Failures just mean "not a repo".
func (h *shellHost) probeVCS() {
	h.mu.Lock()
	dir := h.cwd
	h.mu.Unlock()

	status := session.VCSStatus{}

	branch := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	branch.Dir = dir
	out, err := branch.Output()
	if err == nil {
		status.IsRepo = true
		status.Branch = strings.TrimSpace(string(out))

		diff := exec.Command("git", "diff", "--numstat")
		diff.Dir = dir
		if dout, derr := diff.Output(); derr == nil {
			for _, line := range strings.Split(strings.TrimSpace(string(dout)), "\n") {
				fields := strings.Fields(line)
				if len(fields) < 3 {
					continue
				}
				status.ModifiedFiles++
				if a, aerr := strconv.Atoi(fields[0]); aerr == nil {
					status.AddedLines += a
				}
				if d, derr2 := strconv.Atoi(fields[1]); derr2 == nil {
					status.DeletedLines += d
				}
			}
		}
	}

	h.dispatch(engine.VCSStatusChanged(h.sessionID, status))
}

// cdTarget reports whether text is a cd invocation and extracts its target.
func cdTarget(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "cd" {
		return "", true
	}
	if strings.HasPrefix(trimmed, "cd ") {
		return strings.TrimSpace(trimmed[3:]), true
	}
	return "", false
}
