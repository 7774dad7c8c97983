// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/history.go
// Summary: Input history replay cursor navigation.

package session

// HistoryDirection selects which way the replay cursor moves.
type HistoryDirection int

const (
	// HistoryUp moves toward older entries.
	HistoryUp HistoryDirection = iota
	// HistoryDown moves toward newer entries and eventually back to the
	// line the user was composing.
	HistoryDown
)

// NavigateHistory moves the session's replay cursor and returns the command
// under it. Up clamps at the oldest entry; down clamps at "not browsing",
// which yields the empty string so the caller can restore the in-progress
// line. Cursor arithmetic is independent per session.
func (st *Store) NavigateHistory(sessionID string, dir HistoryDirection) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensure(sessionID)

	if len(s.history) == 0 {
		return ""
	}

	switch dir {
	case HistoryUp:
		if s.historyIdx < len(s.history)-1 {
			s.historyIdx++
		}
	case HistoryDown:
		if s.historyIdx > -1 {
			s.historyIdx--
		}
	}
	if s.historyIdx < 0 {
		return ""
	}
	return s.history[len(s.history)-1-s.historyIdx]
}
