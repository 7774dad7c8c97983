// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/screen.go
// Summary: Line-oriented screen buffer with terminal overwrite semantics.
// Usage: Driven by the escape parser; flattened into one FormattedChar stream.

package parser

import "github.com/mattn/go-runewidth"

// tabWidth is the fixed tab stop interval. The engine does not honor TBC/HTS
// sequences; every stop sits on a multiple of eight.
const tabWidth = 8

// ScreenBuffer is a growable grid of styled characters with a single logical
// cursor. Unlike a fixed-size terminal grid it never scrolls: rows accumulate
// so a command's full output survives.
//
// Overwrite semantics match a real terminal, which is what makes `\r`-based
// progress bars and spinners come out right: writing at a column that already
// holds a character replaces it in place.
type ScreenBuffer struct {
	rows [][]FormattedChar
	row  int
	col  int
}

// NewScreenBuffer returns an empty buffer with the cursor at the origin.
func NewScreenBuffer() *ScreenBuffer {
	return &ScreenBuffer{rows: make([][]FormattedChar, 1)}
}

// Write applies one character to the grid. Control characters move the
// cursor; printable characters (>= 0x20) overwrite or append. Any other
// control byte is dropped without moving the cursor.
func (b *ScreenBuffer) Write(r rune, style TextStyle) {
	switch {
	case r == '\r':
		b.col = 0
	case r == '\n':
		b.row++
		for b.row >= len(b.rows) {
			b.rows = append(b.rows, nil)
		}
	case r == '\b':
		if b.col > 0 {
			b.col--
		}
	case r == '\t':
		b.col = ((b.col / tabWidth) + 1) * tabWidth
	case r < 0x20:
		// Other control bytes (BEL, VT, SO...) are dropped.
	default:
		b.place(r, style)
	}
}

// place writes a printable character at the cursor, padding the row with
// plain spaces when the cursor sits beyond its current end. Wide (two-column)
// runes advance the cursor by their display width.
func (b *ScreenBuffer) place(r rune, style TextStyle) {
	row := b.rows[b.row]
	if b.col < len(row) {
		row[b.col] = FormattedChar{Rune: r, Style: style}
	} else {
		for len(row) < b.col {
			row = append(row, FormattedChar{Rune: ' '})
		}
		row = append(row, FormattedChar{Rune: r, Style: style})
		b.rows[b.row] = row
	}
	w := runewidth.RuneWidth(r)
	if w < 1 {
		w = 1
	}
	b.col += w
}

// Flatten produces the buffer contents as a single ordered sequence with a
// '\n' marker (empty style) between rows, not after the last one.
func (b *ScreenBuffer) Flatten() []FormattedChar {
	size := 0
	for _, row := range b.rows {
		size += len(row) + 1
	}
	out := make([]FormattedChar, 0, size)
	for i, row := range b.rows {
		if i > 0 {
			out = append(out, FormattedChar{Rune: '\n'})
		}
		out = append(out, row...)
	}
	return out
}

// Cursor returns the current row and column, exposed for tests.
func (b *ScreenBuffer) Cursor() (row, col int) {
	return b.row, b.col
}
