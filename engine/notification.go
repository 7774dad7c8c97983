// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: engine/notification.go
// Summary: Closed set of notification variants from the process layer.
// Usage: Constructed by the process host, applied through Engine.Dispatch.

package engine

import "github.com/framegrace/blockterm/session"

// NotificationKind discriminates the notification union. The set is closed:
// the router switches exhaustively and anything unknown is dropped with a
// log line rather than dispatched by name.
type NotificationKind int

const (
	// KindOutput carries a base64-encoded output chunk.
	KindOutput NotificationKind = iota
	// KindError carries an out-of-band error message for the active block.
	KindError
	// KindCommandEnd finalizes a block with an exit code.
	KindCommandEnd
	// KindWorkingDirChanged updates the cached working directory.
	KindWorkingDirChanged
	// KindVCSStatusChanged merges new version-control metadata.
	KindVCSStatusChanged
)

func (k NotificationKind) String() string {
	switch k {
	case KindOutput:
		return "output"
	case KindError:
		return "error"
	case KindCommandEnd:
		return "command-end"
	case KindWorkingDirChanged:
		return "working-dir-changed"
	case KindVCSStatusChanged:
		return "vcs-status-changed"
	default:
		return "unknown"
	}
}

// Notification is one session-keyed event from the external process layer.
// Only the fields relevant to its Kind are set.
type Notification struct {
	Kind      NotificationKind
	SessionID string

	// BlockID targets a specific block for output and command-end events.
	// Empty routes output to the session's active block.
	BlockID string

	// Payload is the base64-encoded chunk for output, the message text for
	// errors, or the new path for working-directory changes.
	Payload string

	// ExitCode accompanies command-end events.
	ExitCode int

	// VCS accompanies vcs-status-changed events.
	VCS session.VCSStatus
}

// Output builds an output notification carrying an encoded chunk.
func Output(sessionID, blockID, encodedPayload string) Notification {
	return Notification{Kind: KindOutput, SessionID: sessionID, BlockID: blockID, Payload: encodedPayload}
}

// Error builds an out-of-band error notification.
func Error(sessionID, message string) Notification {
	return Notification{Kind: KindError, SessionID: sessionID, Payload: message}
}

// CommandEnd builds a completion notification for a block.
func CommandEnd(sessionID, blockID string, exitCode int) Notification {
	return Notification{Kind: KindCommandEnd, SessionID: sessionID, BlockID: blockID, ExitCode: exitCode}
}

// WorkingDirChanged builds a working-directory update.
func WorkingDirChanged(sessionID, path string) Notification {
	return Notification{Kind: KindWorkingDirChanged, SessionID: sessionID, Payload: path}
}

// VCSStatusChanged builds a version-control status update.
func VCSStatusChanged(sessionID string, status session.VCSStatus) Notification {
	return Notification{Kind: KindVCSStatusChanged, SessionID: sessionID, VCS: status}
}
