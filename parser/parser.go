// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/parser.go
// Summary: VT escape sequence state machine over a UTF-8 character stream.
// Usage: One Parser per session; style state survives chunk boundaries.

package parser

import (
	"strconv"
	"strings"

	"github.com/framegrace/blockterm/theme"
)

type state int

const (
	stateNormal state = iota
	stateEscape
	stateCSI
	stateOSC
)

// OSCHandler receives a terminated OSC payload keyed by its leading numeric
// code (the part before the first ';'). No codes are acted on by default;
// the hook exists for window-title and working-directory signaling.
type OSCHandler func(code int, payload string)

// Parser classifies an incoming character stream into literal characters,
// CSI sequences and OSC sequences, writing literals through a fresh
// ScreenBuffer per Parse call while the escape accumulator and the active
// SGR style persist across calls. A chunk that ends mid-sequence therefore
// resumes cleanly on the next chunk, and styling opened in one chunk still
// applies to the next until an SGR reset arrives.
type Parser struct {
	theme *theme.Theme

	st      state
	params  []int
	current int
	osc     strings.Builder
	oscEsc  bool

	style      TextStyle
	oscHandler OSCHandler
}

// Option configures a Parser.
type Option func(*Parser)

// WithOSCHandler installs a handler for terminated OSC sequences.
func WithOSCHandler(h OSCHandler) Option {
	return func(p *Parser) { p.oscHandler = h }
}

// New creates a parser resolving colors against the given theme.
func New(th *theme.Theme, opts ...Option) *Parser {
	p := &Parser{
		theme:  th,
		params: make([]int, 0, 16),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetTheme swaps the theme used to resolve colors in subsequent sequences.
// Already-produced styles keep the colors they were resolved with.
func (p *Parser) SetTheme(th *theme.Theme) { p.theme = th }

// Style returns the SGR style currently in effect.
func (p *Parser) Style() TextStyle { return p.style }

// Reset clears the escape accumulator and the active style. Called when a
// new command block starts so a command never inherits its predecessor's
// unterminated styling.
func (p *Parser) Reset() {
	p.st = stateNormal
	p.params = p.params[:0]
	p.current = 0
	p.osc.Reset()
	p.oscEsc = false
	p.style = TextStyle{}
}

// Parse processes one chunk and returns the flattened screen contents it
// produced: one FormattedChar per visible character, '\n' markers between
// rows.
func (p *Parser) Parse(input string) []FormattedChar {
	buf := NewScreenBuffer()
	for _, r := range input {
		p.step(r, buf)
	}
	return buf.Flatten()
}

func (p *Parser) step(r rune, buf *ScreenBuffer) {
	switch p.st {
	case stateNormal:
		if r == 0x1b {
			p.st = stateEscape
			return
		}
		buf.Write(r, p.style)

	case stateEscape:
		switch r {
		case '[':
			p.st = stateCSI
			p.params = p.params[:0]
			p.current = 0
		case ']':
			p.st = stateOSC
			p.osc.Reset()
			p.oscEsc = false
		default:
			// Unsupported escape (charset selection, keypad modes...).
			p.st = stateNormal
		}

	case stateCSI:
		switch {
		case r >= '0' && r <= '9':
			p.current = p.current*10 + int(r-'0')
		case r == ';':
			p.params = append(p.params, p.current)
			p.current = 0
		case r == '?':
			// Private-mode marker, ignored in place.
		case r >= 0x40 && r <= 0x7e:
			p.params = append(p.params, p.current)
			if r == 'm' {
				p.style = ApplySGR(p.params, p.style, p.theme)
			}
			// Every other final byte is recognized and discarded.
			p.st = stateNormal
		default:
			// Malformed sequence; recover rather than halt.
			p.st = stateNormal
		}

	case stateOSC:
		switch {
		case r == 0x07:
			p.dispatchOSC()
			p.st = stateNormal
		case p.oscEsc && r == '\\':
			p.dispatchOSC()
			p.st = stateNormal
		case r == 0x1b:
			p.oscEsc = true
		default:
			if p.oscEsc {
				// Lone ESC inside an OSC body; keep it literal.
				p.osc.WriteRune(0x1b)
				p.oscEsc = false
			}
			p.osc.WriteRune(r)
		}
	}
}

// dispatchOSC hands the accumulated payload to the handler, keyed by its
// leading numeric code. Payloads without a numeric code are ignored.
func (p *Parser) dispatchOSC() {
	defer func() {
		p.osc.Reset()
		p.oscEsc = false
	}()
	if p.oscHandler == nil {
		return
	}
	body := p.osc.String()
	head, rest, found := strings.Cut(body, ";")
	if !found {
		head, rest = body, ""
	}
	code, err := strconv.Atoi(head)
	if err != nil {
		return
	}
	p.oscHandler(code, rest)
}
