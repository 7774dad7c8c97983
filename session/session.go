// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/session.go
// Summary: Per-session state: blocks, active pointer, history, environment.
// Usage: Owned exclusively by the Store; mutated only through Store operations.

package session

import "time"

// VCSStatus is the cached version-control state for a session's working
// directory.
type VCSStatus struct {
	IsRepo        bool
	Branch        string
	ModifiedFiles int
	AddedLines    int
	DeletedLines  int
}

// Environment is the cached session environment metadata.
type Environment struct {
	WorkingDir string
	VCS        VCSStatus
}

// Session holds everything the engine tracks for one shell: ordered command
// blocks, the currently open block, submitted-command history with its
// replay cursor, and environment metadata. Sessions are created on first
// reference and destroyed only by explicit teardown.
type Session struct {
	ID        string
	CreatedAt time.Time

	blocks []*Block
	active *Block

	history    []string
	historyIdx int // -1 = not browsing

	env Environment

	// revision increments on every mutation a renderer can observe, so a
	// polling caller can skip redraws cheaply.
	revision uint64
}

func newSession(id string) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		historyIdx: -1,
	}
}

func (s *Session) touch() { s.revision++ }

func (s *Session) blockByID(id string) *Block {
	for _, b := range s.blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}
