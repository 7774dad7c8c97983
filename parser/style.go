// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/style.go
// Summary: Immutable text style snapshots and the formatted character unit.
// Usage: Produced by the SGR resolver, consumed by renderers.

package parser

import "strings"

// TextStyle is the graphic state in effect when a character is written.
// Foreground and Background are resolved "#rrggbb" strings; empty means the
// theme default. Values are snapshots: applying SGR parameters derives a new
// style rather than mutating one already attached to output.
type TextStyle struct {
	Foreground string
	Background string

	Bold          bool
	Dim           bool
	Italic        bool
	Underline     bool
	Blink         bool
	Inverse       bool
	Hidden        bool
	Strikethrough bool
}

// IsZero reports whether the style is the empty (reset) style.
func (s TextStyle) IsZero() bool {
	return s == TextStyle{}
}

// String returns a compact human-readable form, used in test failures.
func (s TextStyle) String() string {
	if s.IsZero() {
		return "plain"
	}
	var parts []string
	if s.Foreground != "" {
		parts = append(parts, "fg="+s.Foreground)
	}
	if s.Background != "" {
		parts = append(parts, "bg="+s.Background)
	}
	for _, f := range []struct {
		on   bool
		name string
	}{
		{s.Bold, "bold"}, {s.Dim, "dim"}, {s.Italic, "italic"},
		{s.Underline, "underline"}, {s.Blink, "blink"}, {s.Inverse, "inverse"},
		{s.Hidden, "hidden"}, {s.Strikethrough, "strike"},
	} {
		if f.on {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// FormattedChar pairs one character with the style in effect when it was
// written. This is the fundamental rendering unit; row joins in flattened
// output appear as '\n' markers carrying the empty style.
type FormattedChar struct {
	Rune  rune
	Style TextStyle
}

// Text collapses a formatted sequence back to its plain string form.
func Text(chars []FormattedChar) string {
	var b strings.Builder
	b.Grow(len(chars))
	for _, c := range chars {
		b.WriteRune(c.Rune)
	}
	return b.String()
}
