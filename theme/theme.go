// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: theme/theme.go
// Summary: Theme model: ANSI palette, surface colors, typography, block chrome.
// Usage: One theme is active engine-wide; the parser resolves SGR colors against it.

package theme

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Font describes the typography a renderer should use for terminal text.
type Font struct {
	Family     string  `toml:"family"`
	Size       float64 `toml:"size"`
	LineHeight float64 `toml:"line_height"`
}

// BlockChrome holds the visual parameters for command blocks and the input line.
type BlockChrome struct {
	Padding       int `toml:"padding"`
	CollapsedRows int `toml:"collapsed_rows"`
	InputRows     int `toml:"input_rows"`
}

// Theme is a named palette plus typography and block chrome. Colors are
// "#rrggbb" strings. ANSI holds the 16 base colors: indices 0-7 are the
// normal half, 8-15 the bright half.
type Theme struct {
	Name string `toml:"name"`

	ANSI [16]string `toml:"ansi"`

	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Cursor     string `toml:"cursor"`
	Selection  string `toml:"selection"`

	Font  Font        `toml:"font"`
	Block BlockChrome `toml:"block"`
}

// ANSIColor returns the palette entry for a base color index. Index 0-7 is
// the normal half; bright selects the 8-15 half. Out-of-range indices clamp
// to the palette bounds.
func (t *Theme) ANSIColor(index int, bright bool) string {
	if index < 0 {
		index = 0
	}
	if index > 7 {
		index = 7
	}
	if bright {
		index += 8
	}
	return t.ANSI[index]
}

// Color256 maps an xterm 256-color index onto a concrete color.
// Indices 0-15 resolve through the theme palette. 16-231 form the 6x6x6
// color cube with channel steps of 51. 232-255 are the 24-step grayscale
// ramp starting at 8 with a stride of 10.
func (t *Theme) Color256(index int) string {
	switch {
	case index < 0 || index > 255:
		return t.Foreground
	case index < 8:
		return t.ANSIColor(index, false)
	case index < 16:
		return t.ANSIColor(index-8, true)
	case index < 232:
		n := index - 16
		r := (n / 36) * 51
		g := ((n / 6) % 6) * 51
		b := (n % 6) * 51
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	default:
		gray := (index-232)*10 + 8
		return fmt.Sprintf("#%02x%02x%02x", gray, gray, gray)
	}
}

// Blend mixes color toward target in RGB space. amount 0 returns color
// unchanged, 1 returns target. Invalid hex strings pass through untouched.
func Blend(color, target string, amount float64) string {
	c, err := colorful.Hex(color)
	if err != nil {
		return color
	}
	tc, err := colorful.Hex(target)
	if err != nil {
		return color
	}
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}
	return c.BlendRgb(tc, amount).Hex()
}

// Brighten derives a bright palette variant by blending toward white in Luv
// space, which keeps hue stable for saturated colors.
func Brighten(color string, amount float64) string {
	c, err := colorful.Hex(color)
	if err != nil {
		return color
	}
	white := colorful.Color{R: 1, G: 1, B: 1}
	return c.BlendLuv(white, amount).Clamped().Hex()
}

// Dim fades a foreground toward the theme background, used by renderers for
// the SGR dim attribute.
func (t *Theme) Dim(color string) string {
	fg := color
	if fg == "" {
		fg = t.Foreground
	}
	return Blend(fg, t.Background, 0.45)
}

// validate checks that every color field parses as hex and fills bright
// palette slots from the normal half when a theme omits them.
func (t *Theme) validate() error {
	if t.Name == "" {
		return fmt.Errorf("theme: missing name")
	}
	for i, c := range t.ANSI {
		if c == "" && i >= 8 {
			t.ANSI[i] = Brighten(t.ANSI[i-8], 0.3)
			continue
		}
		if _, err := colorful.Hex(t.ANSI[i]); err != nil {
			return fmt.Errorf("theme %s: ansi[%d] %q: %w", t.Name, i, t.ANSI[i], err)
		}
	}
	for _, f := range []struct {
		name, val string
	}{
		{"foreground", t.Foreground},
		{"background", t.Background},
		{"cursor", t.Cursor},
		{"selection", t.Selection},
	} {
		if _, err := colorful.Hex(f.val); err != nil {
			return fmt.Errorf("theme %s: %s %q: %w", t.Name, f.name, f.val, err)
		}
	}
	return nil
}
