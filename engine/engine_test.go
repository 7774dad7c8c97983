package engine

import (
	"encoding/base64"
	"io"
	"testing"

	clog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framegrace/blockterm/search"
	"github.com/framegrace/blockterm/session"
	"github.com/framegrace/blockterm/theme"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(clog.New(io.Discard))}, opts...)
	return New(opts...)
}

func enc(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestSubmitCommand(t *testing.T) {
	e := newEngine(t)

	id := e.SubmitCommand("s1", "ls -l")
	require.NotEmpty(t, id)

	blocks := e.Blocks("s1")
	require.Len(t, blocks, 1)
	assert.Equal(t, "ls -l", blocks[0].Command)
	assert.Equal(t, session.StatusRunning, blocks[0].Status)
	assert.Equal(t, []string{"ls -l"}, e.Store().History("s1"))
}

func TestSubmitCommandBlankIsNoBlock(t *testing.T) {
	e := newEngine(t)

	assert.Empty(t, e.SubmitCommand("s1", ""))
	assert.Empty(t, e.SubmitCommand("s1", "  \t\n"))
	assert.Empty(t, e.Blocks("s1"))
	assert.Empty(t, e.Store().History("s1"))
}

func TestDispatchOutput(t *testing.T) {
	e := newEngine(t)
	id := e.SubmitCommand("s1", "echo hi")

	e.Dispatch(Output("s1", id, enc("hi\r\n")))

	blocks := e.Blocks("s1")
	require.Len(t, blocks[0].Lines, 1)
	assert.Equal(t, "hi\r\n", blocks[0].Lines[0].Raw)
	assert.Equal(t, "hi\n", blocks[0].Text())
}

func TestDispatchOutputToActiveBlock(t *testing.T) {
	e := newEngine(t)
	e.SubmitCommand("s1", "cat")

	// No block id: route to whatever is active.
	e.Dispatch(Output("s1", "", enc("typed")))
	assert.Equal(t, "typed", e.Blocks("s1")[0].Text())
}

func TestDispatchOutputStyled(t *testing.T) {
	e := newEngine(t)
	id := e.SubmitCommand("s1", "grep")
	red := e.ActiveTheme().ANSIColor(1, false)

	e.Dispatch(Output("s1", id, enc("\x1b[31mbad\x1b[0m ok")))

	chars := e.Blocks("s1")[0].Lines[0].Chars
	require.Len(t, chars, 6)
	for i := 0; i < 3; i++ {
		assert.Equal(t, red, chars[i].Style.Foreground)
	}
	assert.True(t, chars[3].Style.IsZero())
}

func TestDispatchBadBase64Dropped(t *testing.T) {
	e := newEngine(t)
	id := e.SubmitCommand("s1", "ls")

	e.Dispatch(Output("s1", id, "!!!not base64!!!"))
	assert.Empty(t, e.Blocks("s1")[0].Lines)

	// The bad chunk must not poison the ones after it.
	e.Dispatch(Output("s1", id, enc("fine")))
	assert.Equal(t, "fine", e.Blocks("s1")[0].Text())
}

func TestDispatchInvalidUTF8Dropped(t *testing.T) {
	e := newEngine(t)
	id := e.SubmitCommand("s1", "cat binary")

	e.Dispatch(Output("s1", id, base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x41})))
	assert.Empty(t, e.Blocks("s1")[0].Lines)
}

func TestDispatchOutputWithoutBlockDropped(t *testing.T) {
	e := newEngine(t)

	// Never panics, never creates a block.
	e.Dispatch(Output("s1", "", enc("orphan")))
	assert.Empty(t, e.Blocks("s1"))
}

func TestDispatchCommandEnd(t *testing.T) {
	e := newEngine(t)
	id := e.SubmitCommand("s1", "true")

	e.Dispatch(CommandEnd("s1", id, 0))
	b := e.Blocks("s1")[0]
	assert.Equal(t, session.StatusSuccess, b.Status)
	require.NotNil(t, b.ExitCode)
	assert.Equal(t, 0, *b.ExitCode)

	id2 := e.SubmitCommand("s1", "false")
	e.Dispatch(CommandEnd("s1", id2, 2))
	b = e.Blocks("s1")[1]
	assert.Equal(t, session.StatusError, b.Status)
	assert.Equal(t, 2, *b.ExitCode)
}

func TestDispatchError(t *testing.T) {
	e := newEngine(t)
	e.SubmitCommand("s1", "spawn")
	red := e.ActiveTheme().ANSIColor(1, false)

	e.Dispatch(Error("s1", "spawn failed"))

	b := e.Blocks("s1")[0]
	assert.Equal(t, session.StatusError, b.Status)
	assert.Nil(t, b.ExitCode, "out-of-band errors carry no exit code")

	chars := b.Lines[0].Chars
	require.NotEmpty(t, chars)
	assert.Equal(t, '\n', chars[0].Rune, "error text starts on its own line")
	for _, c := range chars[1:] {
		assert.Equal(t, red, c.Style.Foreground)
	}
}

func TestDispatchErrorWithoutBlockDropped(t *testing.T) {
	e := newEngine(t)
	e.Dispatch(Error("s1", "nothing to attach to"))
	assert.Empty(t, e.Blocks("s1"))
}

func TestDispatchWorkingDirAndVCS(t *testing.T) {
	e := newEngine(t)

	e.Dispatch(WorkingDirChanged("s1", "/srv/app"))
	status := session.VCSStatus{IsRepo: true, Branch: "main", ModifiedFiles: 1}
	e.Dispatch(VCSStatusChanged("s1", status))

	env := e.Environment("s1")
	assert.Equal(t, "/srv/app", env.WorkingDir)
	assert.Equal(t, status, env.VCS)
}

func TestDispatchUnknownKindDropped(t *testing.T) {
	e := newEngine(t)
	e.Dispatch(Notification{Kind: NotificationKind(99), SessionID: "s1"})
	assert.Empty(t, e.Blocks("s1"))
}

func TestStyleContinuityAcrossChunks(t *testing.T) {
	e := newEngine(t)
	id := e.SubmitCommand("s1", "tail -f log")
	red := e.ActiveTheme().ANSIColor(1, false)

	e.Dispatch(Output("s1", id, enc("\x1b[31mfirst")))
	e.Dispatch(Output("s1", id, enc(" second")))

	chars := e.Blocks("s1")[0].Lines[0].Chars
	for _, c := range chars {
		assert.Equal(t, red, c.Style.Foreground, "unterminated color carries into the next chunk")
	}
}

func TestNewCommandResetsParserState(t *testing.T) {
	e := newEngine(t)
	a := e.SubmitCommand("s1", "red-forever")
	e.Dispatch(Output("s1", a, enc("\x1b[31mred")))
	e.Dispatch(CommandEnd("s1", a, 0))

	b := e.SubmitCommand("s1", "plain")
	e.Dispatch(Output("s1", b, enc("clean")))

	for _, c := range e.Blocks("s1")[1].Lines[0].Chars {
		assert.True(t, c.Style.IsZero(), "a new command must not inherit leftover styling")
	}
}

func TestSetTheme(t *testing.T) {
	e := newEngine(t)
	id := e.SubmitCommand("s1", "ls")

	require.NoError(t, e.SetTheme("blockterm-light"))
	light, err := e.Themes().Get("blockterm-light")
	require.NoError(t, err)
	assert.Equal(t, light, e.ActiveTheme())

	e.Dispatch(Output("s1", id, enc("\x1b[31mx")))
	chars := e.Blocks("s1")[0].Lines[0].Chars
	assert.Equal(t, light.ANSIColor(1, false), chars[0].Style.Foreground)

	assert.ErrorIs(t, e.SetTheme("missing"), theme.ErrThemeNotFound)
}

func TestNavigateHistory(t *testing.T) {
	e := newEngine(t)
	e.SubmitCommand("s1", "ls")
	e.SubmitCommand("s1", "pwd")

	assert.Equal(t, "pwd", e.NavigateHistory("s1", session.HistoryUp))
	assert.Equal(t, "ls", e.NavigateHistory("s1", session.HistoryUp))
	assert.Equal(t, "pwd", e.NavigateHistory("s1", session.HistoryDown))
	assert.Equal(t, "", e.NavigateHistory("s1", session.HistoryDown))
}

func TestToggleCollapse(t *testing.T) {
	e := newEngine(t)
	id := e.SubmitCommand("s1", "ls")

	require.NoError(t, e.ToggleCollapse("s1", id))
	assert.True(t, e.Blocks("s1")[0].Collapsed)
	assert.ErrorIs(t, e.ToggleCollapse("s1", "nope"), session.ErrBlockNotFound)
}

func TestSearchIntegration(t *testing.T) {
	ix, err := search.Open(search.DefaultDSN)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	e := newEngine(t, WithSearchIndex(ix))
	id := e.SubmitCommand("s1", "grep needle haystack.txt")
	e.Dispatch(Output("s1", id, enc("haystack.txt:42:needle\r\n")))
	e.Dispatch(CommandEnd("s1", id, 0))

	results, err := e.Search("needle", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].BlockID)
	assert.Equal(t, "grep needle haystack.txt", results[0].Command)
}

func TestSearchWithoutIndex(t *testing.T) {
	e := newEngine(t)
	results, err := e.Search("anything", 10)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestErrorPathIndexesBlock(t *testing.T) {
	ix, err := search.Open(search.DefaultDSN)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	e := newEngine(t, WithSearchIndex(ix))
	e.SubmitCommand("s1", "doomed-command")
	e.Dispatch(Error("s1", "exec format error"))

	results, err := e.Search("doomed", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, string(session.StatusError), results[0].Status)
}

func TestTeardown(t *testing.T) {
	ix, err := search.Open(search.DefaultDSN)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	e := newEngine(t, WithSearchIndex(ix))
	id := e.SubmitCommand("s1", "ls")
	e.Dispatch(Output("s1", id, enc("\x1b[31mred")))
	e.Dispatch(CommandEnd("s1", id, 0))

	e.Teardown("s1")
	assert.Empty(t, e.Blocks("s1"))
	assert.Empty(t, e.Store().History("s1"))

	results, err := e.Search("ls", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// A new session under the same id starts from clean parser state.
	id2 := e.SubmitCommand("s1", "fresh")
	e.Dispatch(Output("s1", id2, enc("x")))
	assert.True(t, e.Blocks("s1")[0].Lines[0].Chars[0].Style.IsZero())
}

func TestSessionsAreIndependent(t *testing.T) {
	e := newEngine(t)
	a := e.SubmitCommand("a", "one")
	b := e.SubmitCommand("b", "two")

	e.Dispatch(Output("a", a, enc("\x1b[31m")))
	e.Dispatch(Output("b", b, enc("plain")))

	for _, c := range e.Blocks("b")[0].Lines[0].Chars {
		assert.True(t, c.Style.IsZero(), "style state must not leak across sessions")
	}
}

func TestNotificationKindString(t *testing.T) {
	assert.Equal(t, "output", KindOutput.String())
	assert.Equal(t, "error", KindError.String())
	assert.Equal(t, "command-end", KindCommandEnd.String())
	assert.Equal(t, "working-dir-changed", KindWorkingDirChanged.String())
	assert.Equal(t, "vcs-status-changed", KindVCSStatusChanged.String())
	assert.Equal(t, "unknown", NotificationKind(42).String())
}
