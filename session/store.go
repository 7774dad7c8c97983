// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/store.go
// Summary: The session store: every mutation of session state goes through here.
// Usage: One Store per engine instance; no module-level state.

package session

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framegrace/blockterm/parser"
)

var (
	ErrBlockNotFound = errors.New("session: block not found")
	ErrNoActiveBlock = errors.New("session: no active block")
)

// Store owns all sessions. Sessions are created on first reference to an id
// and removed only by Teardown. All block, history and environment mutations
// are funneled through the store so they stay atomic with respect to each
// other.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// ensure returns the session for id, creating it on first reference.
// Callers must hold the write lock.
func (st *Store) ensure(id string) *Session {
	s, ok := st.sessions[id]
	if !ok {
		s = newSession(id)
		st.sessions[id] = s
	}
	return s
}

// Teardown discards a session and everything it owns: blocks, history,
// environment cache. Unknown ids are a no-op.
func (st *Store) Teardown(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// SessionIDs returns the ids of all live sessions, sorted.
func (st *Store) SessionIDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CreateBlock appends a new running block for the submitted command and
// makes it the session's active block. An externally supplied id is reused
// verbatim; otherwise one is generated.
func (st *Store) CreateBlock(sessionID, command, externalID string) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensure(sessionID)

	id := externalID
	if id == "" {
		id = uuid.NewString()
	}
	b := &Block{
		ID:        id,
		Command:   command,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	s.blocks = append(s.blocks, b)
	s.active = b
	s.touch()
	return id
}

// AppendOutput attaches a parsed chunk to a block. With an empty blockID the
// session's active block is the target. When the block already has output
// the chunk is merged into its last OutputLine by concatenation; a separate
// line is started only for the first chunk.
func (st *Store) AppendOutput(sessionID, blockID, raw string, chars []parser.FormattedChar) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensure(sessionID)

	b := s.active
	if blockID != "" {
		b = s.blockByID(blockID)
		if b == nil {
			return ErrBlockNotFound
		}
	}
	if b == nil {
		return ErrNoActiveBlock
	}

	if n := len(b.Lines); n > 0 {
		line := &b.Lines[n-1]
		line.Raw += raw
		line.Chars = append(line.Chars, chars...)
	} else {
		b.Lines = append(b.Lines, OutputLine{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Raw:       raw,
			Chars:     chars,
		})
	}
	s.touch()
	return nil
}

// Finalize closes a block: status from the exit code, end time stamped, and
// the session's active pointer cleared so unrouted output has nowhere to
// land until the next CreateBlock. Finalizing an already-finished block is
// accepted; status follows the latest exit code and the end time is
// restamped.
func (st *Store) Finalize(sessionID, blockID string, exitCode int) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensure(sessionID)

	b := s.blockByID(blockID)
	if b == nil {
		return ErrBlockNotFound
	}
	if exitCode == 0 {
		b.Status = StatusSuccess
	} else {
		b.Status = StatusError
	}
	code := exitCode
	b.ExitCode = &code
	b.EndedAt = time.Now()
	if s.active == b {
		s.active = nil
	}
	s.touch()
	return nil
}

// Fail marks the session's active block (or the named one) as errored
// without an exit code, for out-of-band error notifications.
func (st *Store) Fail(sessionID, blockID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensure(sessionID)

	b := s.active
	if blockID != "" {
		b = s.blockByID(blockID)
	}
	if b == nil {
		return ErrNoActiveBlock
	}
	b.Status = StatusError
	b.EndedAt = time.Now()
	if s.active == b {
		s.active = nil
	}
	s.touch()
	return nil
}

// ToggleCollapse flips a block's collapsed flag. No other block is affected.
func (st *Store) ToggleCollapse(sessionID, blockID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensure(sessionID)

	b := s.blockByID(blockID)
	if b == nil {
		return ErrBlockNotFound
	}
	b.Collapsed = !b.Collapsed
	s.touch()
	return nil
}

// UpdateStatus sets a block's status directly.
func (st *Store) UpdateStatus(sessionID, blockID string, status BlockStatus) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensure(sessionID)

	b := s.blockByID(blockID)
	if b == nil {
		return ErrBlockNotFound
	}
	b.Status = status
	s.touch()
	return nil
}

// Blocks returns a deep copy of the session's blocks in insertion order,
// safe for a renderer to walk without holding any lock.
func (st *Store) Blocks(sessionID string) []Block {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]Block, len(s.blocks))
	for i, b := range s.blocks {
		out[i] = b.clone()
	}
	return out
}

// Block returns a deep copy of one block by id.
func (st *Store) Block(sessionID, blockID string) (Block, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[sessionID]
	if !ok {
		return Block{}, false
	}
	b := s.blockByID(blockID)
	if b == nil {
		return Block{}, false
	}
	return b.clone(), true
}

// ActiveBlockID returns the id of the session's open block, if any.
func (st *Store) ActiveBlockID(sessionID string) (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[sessionID]
	if !ok || s.active == nil {
		return "", false
	}
	return s.active.ID, true
}

// Revision returns the session's mutation counter.
func (st *Store) Revision(sessionID string) uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if s, ok := st.sessions[sessionID]; ok {
		return s.revision
	}
	return 0
}

// SetWorkingDir updates the cached working directory and reports whether it
// actually changed, so callers can avoid thrashing downstream listeners.
func (st *Store) SetWorkingDir(sessionID, path string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensure(sessionID)
	if s.env.WorkingDir == path {
		return false
	}
	s.env.WorkingDir = path
	s.touch()
	return true
}

// MergeVCSStatus replaces the cached VCS metadata.
func (st *Store) MergeVCSStatus(sessionID string, status VCSStatus) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensure(sessionID)
	if s.env.VCS == status {
		return
	}
	s.env.VCS = status
	s.touch()
}

// Environment returns the session's cached environment metadata.
func (st *Store) Environment(sessionID string) Environment {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if s, ok := st.sessions[sessionID]; ok {
		return s.env
	}
	return Environment{}
}

// AddToHistory appends a submitted command to the session's input history
// and resets the replay cursor. Empty and whitespace-only commands are not
// recorded.
func (st *Store) AddToHistory(sessionID, command string) {
	if strings.TrimSpace(command) == "" {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensure(sessionID)
	s.history = append(s.history, command)
	s.historyIdx = -1
	s.touch()
}

// History returns a copy of the session's input history, oldest first.
func (st *Store) History(sessionID string) []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if s, ok := st.sessions[sessionID]; ok {
		return append([]string(nil), s.history...)
	}
	return nil
}
