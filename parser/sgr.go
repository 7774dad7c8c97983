// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/sgr.go
// Summary: SGR (Select Graphic Rendition) resolution against the active theme.

package parser

import "github.com/framegrace/blockterm/theme"

// ApplySGR interprets one CSI ... m parameter list against the current style
// and returns the derived style. Parameters are evaluated left to right; a 0
// replaces the working style with the empty style and later parameters in
// the same sequence apply on top of that baseline.
//
// Extended colors (38/48) consume their subparameters: `38;5;N` reads a
// 256-color index, `38;2;R;G;B` reads literal truecolor channels, and the
// loop skips what was read so the values are not reprocessed as flags.
func ApplySGR(params []int, current TextStyle, th *theme.Theme) TextStyle {
	s := current
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			s = TextStyle{}
		case p == 1:
			s.Bold = true
		case p == 2:
			s.Dim = true
		case p == 3:
			s.Italic = true
		case p == 4:
			s.Underline = true
		case p == 5 || p == 6:
			s.Blink = true
		case p == 7:
			s.Inverse = true
		case p == 8:
			s.Hidden = true
		case p == 9:
			s.Strikethrough = true
		case p == 22:
			s.Bold = false
			s.Dim = false
		case p == 23:
			s.Italic = false
		case p == 24:
			s.Underline = false
		case p == 27:
			s.Inverse = false
		case p == 28:
			s.Hidden = false
		case p == 29:
			s.Strikethrough = false
		case p >= 30 && p <= 37:
			s.Foreground = th.ANSIColor(p-30, false)
		case p == 38:
			color, skip := extendedColor(params[i+1:], th)
			if skip > 0 {
				s.Foreground = color
				i += skip
			}
		case p == 39:
			s.Foreground = ""
		case p >= 40 && p <= 47:
			s.Background = th.ANSIColor(p-40, false)
		case p == 48:
			color, skip := extendedColor(params[i+1:], th)
			if skip > 0 {
				s.Background = color
				i += skip
			}
		case p == 49:
			s.Background = ""
		case p >= 90 && p <= 97:
			s.Foreground = th.ANSIColor(p-90, true)
		case p >= 100 && p <= 107:
			s.Background = th.ANSIColor(p-100, true)
		}
	}
	return s
}

// extendedColor decodes the subparameters following a 38 or 48. It returns
// the resolved color and how many parameters were consumed; skip 0 means the
// sequence was malformed and should be left alone.
func extendedColor(rest []int, th *theme.Theme) (color string, skip int) {
	if len(rest) >= 2 && rest[0] == 5 {
		return th.Color256(rest[1]), 2
	}
	if len(rest) >= 4 && rest[0] == 2 {
		return rgbHex(rest[1], rest[2], rest[3]), 4
	}
	return "", 0
}

func rgbHex(r, g, b int) string {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return v
	}
	const hexdigits = "0123456789abcdef"
	out := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []int{clamp(r), clamp(g), clamp(b)} {
		out[1+i*2] = hexdigits[v>>4]
		out[2+i*2] = hexdigits[v&0xf]
	}
	return string(out)
}
