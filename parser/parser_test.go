package parser

import (
	"strings"
	"testing"

	"github.com/framegrace/blockterm/theme"
)

func TestParsePlainText(t *testing.T) {
	p := New(testTheme(t))
	input := "hello world"
	out := p.Parse(input)

	if len(out) != len(input) {
		t.Fatalf("len = %d, want %d", len(out), len(input))
	}
	for i, c := range out {
		if c.Rune != rune(input[i]) {
			t.Errorf("char %d = %q, want %q", i, c.Rune, input[i])
		}
		if !c.Style.IsZero() {
			t.Errorf("char %d should carry the empty style, got %v", i, c.Style)
		}
	}
}

func TestParseSGRSequences(t *testing.T) {
	th := testTheme(t)
	red := th.ANSIColor(1, false)
	green := th.ANSIColor(2, false)

	t.Run("red hello plain world", func(t *testing.T) {
		p := New(th)
		out := p.Parse("\x1b[31mHello\x1b[0m World")
		if got := Text(out); got != "Hello World" {
			t.Fatalf("text = %q", got)
		}
		for i := 0; i < 5; i++ {
			if out[i].Style.Foreground != red {
				t.Errorf("Hello[%d] fg = %q, want %q", i, out[i].Style.Foreground, red)
			}
		}
		for i := 5; i < len(out); i++ {
			if !out[i].Style.IsZero() {
				t.Errorf("' World'[%d] should be plain, got %v", i-5, out[i].Style)
			}
		}
	})

	t.Run("bold green OK", func(t *testing.T) {
		p := New(th)
		out := p.Parse("\x1b[1;32mOK\x1b[0m")
		want := TextStyle{Bold: true, Foreground: green}
		for i, c := range out {
			if c.Style != want {
				t.Errorf("OK[%d] style = %v, want %v", i, c.Style, want)
			}
		}
	})

	t.Run("256-color orange", func(t *testing.T) {
		p := New(th)
		out := p.Parse("\x1b[38;5;208mX\x1b[0m")
		if out[0].Style.Foreground != "#ff6600" {
			t.Errorf("fg = %q, want #ff6600", out[0].Style.Foreground)
		}
	})
}

func TestParseMultiRow(t *testing.T) {
	p := New(testTheme(t))
	out := p.Parse("one\r\ntwo")
	if got := Text(out); got != "one\ntwo" {
		t.Fatalf("text = %q, want %q", got, "one\ntwo")
	}
	// Row-join markers carry the empty style.
	for _, c := range out {
		if c.Rune == '\n' && !c.Style.IsZero() {
			t.Error("row-join marker must carry the empty style")
		}
	}
}

func TestParseStyleContinuityAcrossChunks(t *testing.T) {
	th := testTheme(t)
	red := th.ANSIColor(1, false)
	p := New(th)

	first := p.Parse("\x1b[31mAB")
	second := p.Parse("CD")

	for i, c := range first {
		if c.Style.Foreground != red {
			t.Errorf("first[%d] fg = %q, want red", i, c.Style.Foreground)
		}
	}
	for i, c := range second {
		if c.Style.Foreground != red {
			t.Errorf("second[%d] fg = %q: style must survive the chunk boundary", i, c.Style.Foreground)
		}
	}
}

func TestParseSequenceSplitAcrossChunks(t *testing.T) {
	th := testTheme(t)
	p := New(th)

	out := p.Parse("\x1b[3")
	if len(out) != 0 {
		t.Fatalf("partial sequence produced output: %q", Text(out))
	}
	out = p.Parse("1mX")
	if len(out) != 1 || out[0].Rune != 'X' {
		t.Fatalf("resumed chunk = %q, want X", Text(out))
	}
	if out[0].Style.Foreground != th.ANSIColor(1, false) {
		t.Errorf("fg = %q, want red resolved from the resumed sequence", out[0].Style.Foreground)
	}
}

func TestParseReset(t *testing.T) {
	th := testTheme(t)
	p := New(th)
	p.Parse("\x1b[31m")
	p.Reset()
	out := p.Parse("X")
	if !out[0].Style.IsZero() {
		t.Errorf("style after Reset = %v, want empty", out[0].Style)
	}
}

func TestParseRecovery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "malformed CSI drops back to normal",
			input: "\x1b[31\x01abc",
			want:  "abc",
		},
		{
			name:  "unknown escape intermediate ignored",
			input: "\x1b(Babc",
			want:  "Babc",
		},
		{
			name:  "non-SGR final byte discarded",
			input: "\x1b[2Jabc",
			want:  "abc",
		},
		{
			name:  "private mode marker ignored",
			input: "\x1b[?25habc",
			want:  "abc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(testTheme(t))
			if got := Text(p.Parse(tt.input)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseOSC(t *testing.T) {
	type call struct {
		code    int
		payload string
	}

	tests := []struct {
		name  string
		input string
		text  string
		calls []call
	}{
		{
			name:  "BEL terminated",
			input: "\x1b]0;my title\x07after",
			text:  "after",
			calls: []call{{0, "my title"}},
		},
		{
			name:  "ST terminated",
			input: "\x1b]7;file:///tmp\x1b\\after",
			text:  "after",
			calls: []call{{7, "file:///tmp"}},
		},
		{
			name:  "payload with semicolons",
			input: "\x1b]133;A;extra\x07",
			text:  "",
			calls: []call{{133, "A;extra"}},
		},
		{
			name:  "non-numeric code dropped",
			input: "\x1b]junk\x07x",
			text:  "x",
			calls: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []call
			p := New(testTheme(t), WithOSCHandler(func(code int, payload string) {
				got = append(got, call{code, payload})
			}))
			out := p.Parse(tt.input)
			if text := Text(out); text != tt.text {
				t.Errorf("text = %q, want %q", text, tt.text)
			}
			if len(got) != len(tt.calls) {
				t.Fatalf("handler calls = %v, want %v", got, tt.calls)
			}
			for i := range got {
				if got[i] != tt.calls[i] {
					t.Errorf("call %d = %v, want %v", i, got[i], tt.calls[i])
				}
			}
		})
	}
}

func TestParseThemeSwitch(t *testing.T) {
	registry := theme.NewRegistry()
	dark, _ := registry.Get("blockterm-dark")
	light, _ := registry.Get("blockterm-light")

	p := New(dark)
	before := p.Parse("\x1b[31mA")
	p.SetTheme(light)
	after := p.Parse("\x1b[31mB")

	if before[0].Style.Foreground == after[0].Style.Foreground {
		t.Error("theme switch should change how future sequences resolve")
	}
	if before[0].Style.Foreground != dark.ANSIColor(1, false) {
		t.Error("already-parsed output must keep its resolved color")
	}
}

func TestParseLongOutput(t *testing.T) {
	p := New(testTheme(t))
	input := strings.Repeat("line\r\n", 100)
	out := p.Parse(input)
	if got := strings.Count(Text(out), "\n"); got != 100 {
		t.Errorf("row joins = %d, want 100", got)
	}
}
