// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: engine/engine.go
// Summary: The output router and block lifecycle orchestrator.
// Usage: One Engine per embedding application; all entry points are
// synchronous and atomic with respect to each other.

package engine

import (
	"encoding/base64"
	"errors"
	"os"
	"sync"
	"unicode/utf8"

	clog "github.com/charmbracelet/log"

	"github.com/framegrace/blockterm/parser"
	"github.com/framegrace/blockterm/search"
	"github.com/framegrace/blockterm/session"
	"github.com/framegrace/blockterm/theme"
)

// Engine ties the session store, per-session parsers and the active theme
// together behind a single dispatch entry point. Notifications for the same
// session are applied strictly in arrival order; the internal lock keeps
// every mutation atomic, so interleaved sessions never observe each other
// mid-update.
type Engine struct {
	mu sync.Mutex

	store   *session.Store
	themes  *theme.Registry
	active  *theme.Theme
	parsers map[string]*parser.Parser
	index   *search.Index
	log     *clog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the default stderr logger.
func WithLogger(l *clog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRegistry supplies a theme registry (built-ins plus user themes).
func WithRegistry(r *theme.Registry) Option {
	return func(e *Engine) { e.themes = r }
}

// WithSearchIndex attaches a block search index; finalized blocks are
// indexed and Search becomes available.
func WithSearchIndex(ix *search.Index) Option {
	return func(e *Engine) { e.index = ix }
}

// New creates an engine with the default theme active.
func New(opts ...Option) *Engine {
	e := &Engine{
		store:   session.NewStore(),
		parsers: make(map[string]*parser.Parser),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "blockterm"})
	}
	if e.themes == nil {
		e.themes = theme.NewRegistry()
	}
	if e.active == nil {
		t, err := e.themes.Get(theme.DefaultName)
		if err != nil {
			// A registry without the built-ins; fall back to any theme.
			names := e.themes.Names()
			if len(names) == 0 {
				panic("engine: theme registry is empty")
			}
			t, _ = e.themes.Get(names[0])
		}
		e.active = t
	}
	return e
}

// Store exposes the session store for read access by renderers.
func (e *Engine) Store() *session.Store { return e.store }

// Themes exposes the theme registry.
func (e *Engine) Themes() *theme.Registry { return e.themes }

// ActiveTheme returns the engine-wide active theme. Switching themes affects
// future parsing only; already-parsed output keeps its resolved colors.
func (e *Engine) ActiveTheme() *theme.Theme {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// SetTheme activates a named theme for all sessions' future output.
func (e *Engine) SetTheme(name string) error {
	t, err := e.themes.Get(name)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = t
	for _, p := range e.parsers {
		p.SetTheme(t)
	}
	return nil
}

// parserFor returns the session's parser, creating it on first reference.
// Callers must hold e.mu. Escape state and the active SGR style live here
// and survive chunk boundaries for the session's lifetime.
func (e *Engine) parserFor(sessionID string) *parser.Parser {
	p, ok := e.parsers[sessionID]
	if !ok {
		p = parser.New(e.active, parser.WithOSCHandler(func(code int, payload string) {
			// Reserved for title/cwd signaling; nothing acted on yet.
			e.log.Debug("osc sequence ignored", "session", sessionID, "code", code)
		}))
		e.parsers[sessionID] = p
	}
	return p
}

// SubmitCommand creates a running block for the command text, records it in
// the session's input history, and returns the block id. Empty or
// whitespace-only text creates no block (manual keypresses route their
// output to whatever block is already active) and returns "".
func (e *Engine) SubmitCommand(sessionID, text string) string {
	return e.SubmitCommandWithID(sessionID, text, "")
}

// SubmitCommandWithID is SubmitCommand reusing an externally supplied block
// id, for process layers that mint their own.
func (e *Engine) SubmitCommandWithID(sessionID, text, externalID string) string {
	if !hasCommandText(text) {
		return ""
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	// A fresh command never inherits its predecessor's unterminated styling.
	e.parserFor(sessionID).Reset()
	id := e.store.CreateBlock(sessionID, text, externalID)
	e.store.AddToHistory(sessionID, text)
	return id
}

// Dispatch applies one notification from the process layer. Decode failures
// and unroutable output are logged and dropped; dispatch itself never
// fails, so a malformed chunk cannot desynchronize later ones.
func (e *Engine) Dispatch(n Notification) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch n.Kind {
	case KindOutput:
		e.handleOutput(n)
	case KindError:
		e.handleError(n)
	case KindCommandEnd:
		e.handleCommandEnd(n)
	case KindWorkingDirChanged:
		if e.store.SetWorkingDir(n.SessionID, n.Payload) {
			e.log.Debug("working dir changed", "session", n.SessionID, "path", n.Payload)
		}
	case KindVCSStatusChanged:
		e.store.MergeVCSStatus(n.SessionID, n.VCS)
	default:
		e.log.Warn("unknown notification kind dropped", "kind", int(n.Kind), "session", n.SessionID)
	}
}

// handleOutput decodes the transport encoding, then the bytes as UTF-8, and
// parses the chunk with the session's long-lived parser.
func (e *Engine) handleOutput(n Notification) {
	raw, err := base64.StdEncoding.DecodeString(n.Payload)
	if err != nil {
		e.log.Error("output chunk dropped: bad base64", "session", n.SessionID, "err", err)
		return
	}
	if !utf8.Valid(raw) {
		e.log.Error("output chunk dropped: invalid utf-8", "session", n.SessionID, "bytes", len(raw))
		return
	}
	text := string(raw)
	chars := e.parserFor(n.SessionID).Parse(text)

	err = e.store.AppendOutput(n.SessionID, n.BlockID, text, chars)
	switch {
	case errors.Is(err, session.ErrNoActiveBlock):
		e.log.Debug("output dropped: no active block", "session", n.SessionID)
	case errors.Is(err, session.ErrBlockNotFound):
		e.log.Warn("output dropped: unknown block", "session", n.SessionID, "block", n.BlockID)
	}
}

// handleError appends the message as a red (SGR 31 equivalent) line to the
// active block and finalizes it with an error status. Errors are terminal:
// no retry, no exit code.
func (e *Engine) handleError(n Notification) {
	style := parser.TextStyle{Foreground: e.active.ANSIColor(1, false)}
	text := n.Payload
	chars := make([]parser.FormattedChar, 0, len(text)+1)
	chars = append(chars, parser.FormattedChar{Rune: '\n'})
	for _, r := range text {
		chars = append(chars, parser.FormattedChar{Rune: r, Style: style})
	}

	if err := e.store.AppendOutput(n.SessionID, "", "\n"+text, chars); err != nil {
		e.log.Warn("error notification dropped: no active block", "session", n.SessionID, "message", text)
		return
	}
	if err := e.store.Fail(n.SessionID, ""); err != nil {
		e.log.Warn("failed to finalize errored block", "session", n.SessionID, "err", err)
		return
	}
	e.indexLastFinalized(n.SessionID)
}

func (e *Engine) handleCommandEnd(n Notification) {
	if err := e.store.Finalize(n.SessionID, n.BlockID, n.ExitCode); err != nil {
		e.log.Warn("command end for unknown block", "session", n.SessionID, "block", n.BlockID)
		return
	}
	e.indexBlock(n.SessionID, n.BlockID)
}

// indexBlock records a finalized block in the search index, when one is
// attached.
func (e *Engine) indexBlock(sessionID, blockID string) {
	if e.index == nil {
		return
	}
	b, ok := e.store.Block(sessionID, blockID)
	if !ok {
		return
	}
	err := e.index.IndexBlock(b.ID, sessionID, b.Command, b.Text(), string(b.Status), b.EndedAt)
	if err != nil {
		e.log.Error("search indexing failed", "block", b.ID, "err", err)
	}
}

// indexLastFinalized indexes the most recent finished block, used by the
// error path where no block id accompanies the notification.
func (e *Engine) indexLastFinalized(sessionID string) {
	if e.index == nil {
		return
	}
	blocks := e.store.Blocks(sessionID)
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Finished() {
			b := blocks[i]
			err := e.index.IndexBlock(b.ID, sessionID, b.Command, b.Text(), string(b.Status), b.EndedAt)
			if err != nil {
				e.log.Error("search indexing failed", "block", b.ID, "err", err)
			}
			return
		}
	}
}

// NavigateHistory moves a session's history replay cursor.
func (e *Engine) NavigateHistory(sessionID string, dir session.HistoryDirection) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.NavigateHistory(sessionID, dir)
}

// ToggleCollapse flips a block's collapsed flag.
func (e *Engine) ToggleCollapse(sessionID, blockID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ToggleCollapse(sessionID, blockID)
}

// Blocks returns a read-only snapshot of a session's blocks for rendering.
func (e *Engine) Blocks(sessionID string) []session.Block {
	return e.store.Blocks(sessionID)
}

// Environment returns a session's cached environment metadata.
func (e *Engine) Environment(sessionID string) session.Environment {
	return e.store.Environment(sessionID)
}

// Search queries the attached block index. Without an index it returns nil.
func (e *Engine) Search(query string, limit int) ([]search.Result, error) {
	if e.index == nil {
		return nil, nil
	}
	return e.index.Search(query, limit)
}

// Teardown discards a session: its blocks, history, parser state and any
// indexed output. Already-applied output is not "unparsed" anywhere else.
func (e *Engine) Teardown(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.parsers, sessionID)
	e.store.Teardown(sessionID)
	if e.index != nil {
		if err := e.index.DeleteSession(sessionID); err != nil {
			e.log.Error("search index cleanup failed", "session", sessionID, "err", err)
		}
	}
}

func hasCommandText(text string) bool {
	for _, r := range text {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}
