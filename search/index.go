// Copyright © 2026 Blockterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: search/index.go
// Summary: SQLite FTS5 trigram index over finalized command blocks.
//
// The index lives in memory by default (dsn ":memory:") so the engine keeps
// its no-on-disk-state contract; a file DSN can be supplied where a host
// application wants searches to survive restarts.

package search

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDSN keeps the whole index in process memory.
const DefaultDSN = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS blocks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    block_id TEXT NOT NULL UNIQUE,
    session_id TEXT NOT NULL,
    command TEXT NOT NULL,
    output TEXT NOT NULL,
    status TEXT NOT NULL,
    finished_at INTEGER NOT NULL      -- UnixNano
);

CREATE INDEX IF NOT EXISTS idx_blocks_session ON blocks(session_id);
CREATE INDEX IF NOT EXISTS idx_blocks_finished ON blocks(finished_at);

-- Trigram tokenizer enables substring matching ("ls -l", partial paths).
CREATE VIRTUAL TABLE IF NOT EXISTS blocks_fts USING fts5(
    command,
    output,
    content='blocks',
    content_rowid='id',
    tokenize='trigram'
);

CREATE TRIGGER IF NOT EXISTS blocks_ai AFTER INSERT ON blocks BEGIN
    INSERT INTO blocks_fts(rowid, command, output) VALUES (new.id, new.command, new.output);
END;

CREATE TRIGGER IF NOT EXISTS blocks_ad AFTER DELETE ON blocks BEGIN
    INSERT INTO blocks_fts(blocks_fts, rowid, command, output) VALUES ('delete', old.id, old.command, old.output);
END;

CREATE TRIGGER IF NOT EXISTS blocks_au AFTER UPDATE ON blocks BEGIN
    INSERT INTO blocks_fts(blocks_fts, rowid, command, output) VALUES ('delete', old.id, old.command, old.output);
    INSERT INTO blocks_fts(rowid, command, output) VALUES (new.id, new.command, new.output);
END;
`

// Result is a single block match.
type Result struct {
	BlockID    string
	SessionID  string
	Command    string
	Status     string
	FinishedAt time.Time
}

// Index is a full-text index of finalized blocks' command text and output.
type Index struct {
	db *sql.DB
}

// Open creates (or opens) an index at the given DSN. An empty dsn selects
// the in-memory default.
func Open(dsn string) (*Index, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("search: open %s: %w", dsn, err)
	}
	// One connection: the engine is single-threaded, and it keeps an
	// in-memory database from evaporating between pooled connections.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("search: connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("search: create schema: %w", err)
	}
	return &Index{db: db}, nil
}

// IndexBlock records a finalized block. Re-indexing the same block id
// replaces the previous entry, which keeps double finalization harmless.
func (ix *Index) IndexBlock(blockID, sessionID, command, output, status string, finishedAt time.Time) error {
	_, err := ix.db.Exec(`
		INSERT INTO blocks (block_id, session_id, command, output, status, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(block_id) DO UPDATE SET
			command = excluded.command,
			output = excluded.output,
			status = excluded.status,
			finished_at = excluded.finished_at`,
		blockID, sessionID, command, output, status, finishedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("search: index block %s: %w", blockID, err)
	}
	return nil
}

// DeleteSession drops every indexed block belonging to a torn-down session.
func (ix *Index) DeleteSession(sessionID string) error {
	if _, err := ix.db.Exec("DELETE FROM blocks WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("search: delete session %s: %w", sessionID, err)
	}
	return nil
}

// Search matches query as a substring against command text and output,
// newest first, up to limit results. Queries shorter than the trigram
// minimum (3 bytes) fall back to LIKE.
func (ix *Index) Search(query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error
	if len(query) < 3 {
		pattern := "%" + escapeLike(query) + "%"
		rows, err = ix.db.Query(`
			SELECT block_id, session_id, command, status, finished_at
			FROM blocks
			WHERE command LIKE ? ESCAPE '\' OR output LIKE ? ESCAPE '\'
			ORDER BY finished_at DESC LIMIT ?`,
			pattern, pattern, limit)
	} else {
		rows, err = ix.db.Query(`
			SELECT b.block_id, b.session_id, b.command, b.status, b.finished_at
			FROM blocks_fts f
			JOIN blocks b ON b.id = f.rowid
			WHERE blocks_fts MATCH ?
			ORDER BY b.finished_at DESC LIMIT ?`,
			ftsQuote(query), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search: query %q: %w", query, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var finished int64
		if err := rows.Scan(&r.BlockID, &r.SessionID, &r.Command, &r.Status, &finished); err != nil {
			return nil, fmt.Errorf("search: scan: %w", err)
		}
		r.FinishedAt = time.Unix(0, finished)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// ftsQuote wraps the query as a quoted FTS5 string so shell metacharacters
// are matched literally instead of parsed as query syntax.
func ftsQuote(q string) string {
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"`
}

func escapeLike(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}
