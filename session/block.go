// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/block.go
// Summary: Command blocks and output lines: one command's lifecycle unit.

package session

import (
	"time"

	"github.com/framegrace/blockterm/parser"
)

// BlockStatus is the lifecycle state of a command block.
type BlockStatus string

const (
	StatusPending BlockStatus = "pending"
	StatusRunning BlockStatus = "running"
	StatusSuccess BlockStatus = "success"
	StatusError   BlockStatus = "error"
)

// OutputLine is one identified, timestamped write batch from the stream.
// It may contain embedded '\n' markers; splitting into visual rows is a
// render-time concern, not one line per row. Consecutive chunks for the same
// block merge into the last line by concatenation.
type OutputLine struct {
	ID        string
	Timestamp time.Time
	Raw       string
	Chars     []parser.FormattedChar
}

// Block is one command's lifecycle unit: its invocation text plus all output
// produced until it completes. A block is created already running; the only
// legal transitions are running → success and running → error.
type Block struct {
	ID        string
	Command   string
	Lines     []OutputLine
	Status    BlockStatus
	StartedAt time.Time
	EndedAt   time.Time
	ExitCode  *int
	Collapsed bool
}

// Text returns the block's visible output as a plain string, rows joined by
// the embedded '\n' markers.
func (b *Block) Text() string {
	if len(b.Lines) == 0 {
		return ""
	}
	var chars []parser.FormattedChar
	for _, line := range b.Lines {
		chars = append(chars, line.Chars...)
	}
	return parser.Text(chars)
}

// Finished reports whether the block reached a terminal status.
func (b *Block) Finished() bool {
	return b.Status == StatusSuccess || b.Status == StatusError
}

// clone returns a deep copy safe to hand outside the store.
func (b *Block) clone() Block {
	out := *b
	out.Lines = make([]OutputLine, len(b.Lines))
	for i, line := range b.Lines {
		cl := line
		cl.Chars = append([]parser.FormattedChar(nil), line.Chars...)
		out.Lines[i] = cl
	}
	if b.ExitCode != nil {
		code := *b.ExitCode
		out.ExitCode = &code
	}
	return out
}
