// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/blockterm/view.go
// Summary: tcell renderer for the block model: header, blocks, input line.

package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/blockterm/engine"
	"github.com/framegrace/blockterm/parser"
	"github.com/framegrace/blockterm/session"
	"github.com/framegrace/blockterm/theme"
)

// viewer draws one session's blocks to a tcell screen and translates key
// events into engine operations.
type viewer struct {
	screen    tcell.Screen
	eng       *engine.Engine
	host      *shellHost
	sessionID string

	input    string
	selected int // index into the block list, -1 = none
	scroll   int // lines scrolled up from the bottom
}

func newViewer(screen tcell.Screen, eng *engine.Engine, host *shellHost, sessionID string) *viewer {
	return &viewer{
		screen:    screen,
		eng:       eng,
		host:      host,
		sessionID: sessionID,
		selected:  -1,
	}
}

// line is one prepared screen row.
type line struct {
	chars []parser.FormattedChar
	style *tcell.Style // row-wide override for chrome rows
	text  string       // used when style is set
}

func (v *viewer) draw() {
	th := v.eng.ActiveTheme()
	width, height := v.screen.Size()
	v.screen.Fill(' ', v.baseStyle(th))

	// Header: working directory and VCS state.
	env := v.eng.Environment(v.sessionID)
	header := env.WorkingDir
	if env.VCS.IsRepo {
		header += fmt.Sprintf("  [%s +%d -%d]", env.VCS.Branch, env.VCS.AddedLines, env.VCS.DeletedLines)
	}
	headerStyle := v.baseStyle(th).Background(tcell.GetColor(th.Selection)).Bold(true)
	v.drawText(0, header, headerStyle, width)

	// Body: flattened block rows, bottom-anchored.
	rows := v.blockRows(th)
	body := height - 2 // minus header and input line
	maxScroll := len(rows) - body
	if maxScroll < 0 {
		maxScroll = 0
	}
	if v.scroll > maxScroll {
		v.scroll = maxScroll
	}
	start := len(rows) - body - v.scroll
	if start < 0 {
		start = 0
	}
	y := 1
	for i := start; i < len(rows) && y < height-1; i++ {
		v.drawLine(y, rows[i], th, width)
		y++
	}

	// Input line.
	prompt := "❯ " + v.input
	inputStyle := v.baseStyle(th).Foreground(tcell.GetColor(th.Cursor))
	v.drawText(height-1, prompt, inputStyle, width)
	v.screen.ShowCursor(len([]rune(prompt)), height-1)

	v.screen.Show()
}

// blockRows flattens every block into renderable rows: one chrome row per
// block plus its output rows, honoring the collapsed flag.
func (v *viewer) blockRows(th *theme.Theme) []line {
	blocks := v.eng.Blocks(v.sessionID)
	var rows []line
	for i, b := range blocks {
		chrome := v.baseStyle(th).Bold(true)
		switch b.Status {
		case session.StatusSuccess:
			chrome = chrome.Foreground(tcell.GetColor(th.ANSIColor(2, false)))
		case session.StatusError:
			chrome = chrome.Foreground(tcell.GetColor(th.ANSIColor(1, false)))
		default:
			chrome = chrome.Foreground(tcell.GetColor(th.ANSIColor(3, false)))
		}
		if i == v.selected {
			chrome = chrome.Background(tcell.GetColor(th.Selection))
		}
		rows = append(rows, line{style: &chrome, text: blockGlyph(b) + " " + b.Command})

		if b.Collapsed {
			continue
		}
		var current []parser.FormattedChar
		for _, ol := range b.Lines {
			for _, c := range ol.Chars {
				if c.Rune == '\n' && c.Style.IsZero() {
					rows = append(rows, line{chars: current})
					current = nil
					continue
				}
				current = append(current, c)
			}
		}
		if len(current) > 0 {
			rows = append(rows, line{chars: current})
		}
	}
	return rows
}

func blockGlyph(b session.Block) string {
	switch b.Status {
	case session.StatusSuccess:
		return "✓"
	case session.StatusError:
		return "✗"
	default:
		return "…"
	}
}

func (v *viewer) drawLine(y int, l line, th *theme.Theme, width int) {
	if l.style != nil {
		v.drawText(y, l.text, *l.style, width)
		return
	}
	x := 0
	for _, c := range l.chars {
		if x >= width {
			break
		}
		r := c.Rune
		if c.Style.Hidden {
			r = ' '
		}
		v.screen.SetContent(x, y, r, nil, v.cellStyle(c.Style, th))
		x++
	}
}

func (v *viewer) drawText(y int, text string, style tcell.Style, width int) {
	x := 0
	for _, r := range text {
		if x >= width {
			break
		}
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < width; x++ {
		v.screen.SetContent(x, y, ' ', nil, style)
	}
}

func (v *viewer) baseStyle(th *theme.Theme) tcell.Style {
	return tcell.StyleDefault.
		Foreground(tcell.GetColor(th.Foreground)).
		Background(tcell.GetColor(th.Background))
}

// cellStyle maps an engine TextStyle onto tcell attributes. The dim flag
// blends the foreground toward the theme background instead of relying on
// terminal dim support, which renders inconsistently.
func (v *viewer) cellStyle(s parser.TextStyle, th *theme.Theme) tcell.Style {
	fg := s.Foreground
	if fg == "" {
		fg = th.Foreground
	}
	bg := s.Background
	if bg == "" {
		bg = th.Background
	}
	if s.Dim {
		fg = th.Dim(fg)
	}
	st := tcell.StyleDefault.
		Foreground(tcell.GetColor(fg)).
		Background(tcell.GetColor(bg)).
		Bold(s.Bold).
		Italic(s.Italic).
		Underline(s.Underline).
		Blink(s.Blink).
		Reverse(s.Inverse).
		StrikeThrough(s.Strikethrough)
	return st
}

// handleKey applies one key event. It returns false when the viewer should
// exit.
func (v *viewer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyCtrlD:
		return false
	case tcell.KeyEnter:
		text := v.input
		v.input = ""
		v.selected = -1
		v.scroll = 0
		v.host.Submit(text)
	case tcell.KeyUp:
		v.input = v.eng.NavigateHistory(v.sessionID, session.HistoryUp)
	case tcell.KeyDown:
		v.input = v.eng.NavigateHistory(v.sessionID, session.HistoryDown)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(v.input) > 0 {
			runes := []rune(v.input)
			v.input = string(runes[:len(runes)-1])
		}
	case tcell.KeyTab:
		v.cycleSelection(1)
	case tcell.KeyBacktab:
		v.cycleSelection(-1)
	case tcell.KeyCtrlO:
		v.toggleSelected()
	case tcell.KeyPgUp:
		v.scroll += 5
	case tcell.KeyPgDn:
		v.scroll -= 5
		if v.scroll < 0 {
			v.scroll = 0
		}
	case tcell.KeyRune:
		v.input += string(ev.Rune())
	}
	return true
}

func (v *viewer) cycleSelection(delta int) {
	n := len(v.eng.Blocks(v.sessionID))
	if n == 0 {
		v.selected = -1
		return
	}
	v.selected += delta
	if v.selected >= n {
		v.selected = -1 // wrap through "nothing selected"
	}
	if v.selected < -1 {
		v.selected = n - 1
	}
}

func (v *viewer) toggleSelected() {
	blocks := v.eng.Blocks(v.sessionID)
	if v.selected < 0 || v.selected >= len(blocks) {
		return
	}
	_ = v.eng.ToggleCollapse(v.sessionID, blocks[v.selected].ID)
}
