// Package store implements the per-log relational store writer and reader
// described in spec §4.5: one SQLite file per imported log, five tables
// (LogMeta, Sessions, Fights, FightDetails, FightSeries), written in a
// single bulk transaction and read back either by id or in bulk by the
// multi-log index.
//
// Grounded on the teacher's internal/memory/sqlite.go for the
// database/sql + mattn/go-sqlite3 shape (schema init, single-transaction
// writes), and on the PRAGMA-before-BEGIN sequencing shown in the
// examples pack's schema.go (f02c0c17_leonletto-thrum). The sqlite-vec
// embedding search the teacher used is dropped entirely: there is no
// semantic-recall concern in a combat-log store.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps one per-log SQLite file. Pooled handles are disabled
// (spec §5, "per-log store disables pooled handles") so the file can be
// renamed or deleted once the caller is done with it.
type Store struct {
	db   *sql.DB
	path string
}

// Options configures pragmas applied when a Store is opened or created.
// BusyTimeoutMs is applied as SQLite's busy_timeout; StatementTimeoutS is
// carried from the config but is not applied to any connection or
// statement.
type Options struct {
	BusyTimeoutMs     int
	StatementTimeoutS int
}

// DefaultOptions mirrors the [storage] defaults in esoctl.toml.
func DefaultOptions() Options {
	return Options{BusyTimeoutMs: 5000, StatementTimeoutS: 30}
}

const schema = `
CREATE TABLE IF NOT EXISTS log_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id             TEXT PRIMARY KEY,
	unix_start_ms  INTEGER NOT NULL,
	title          TEXT NOT NULL,
	display_name   TEXT,
	server         TEXT NOT NULL,
	language       TEXT NOT NULL,
	patch          TEXT NOT NULL,
	fight_count    INTEGER NOT NULL,
	trial_init_key INTEGER,
	detail_blob    BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS fights (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL,
	zone_segment_id INTEGER NOT NULL,
	start_rel_ms    INTEGER NOT NULL,
	end_rel_ms      INTEGER NOT NULL,
	title           TEXT NOT NULL,
	zone_name       TEXT NOT NULL,
	difficulty      TEXT NOT NULL,
	map_name        TEXT,
	map_key         TEXT,
	is_hard_mode    INTEGER NOT NULL,
	summary_blob    BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fights_session ON fights(session_id);
CREATE INDEX IF NOT EXISTS idx_fights_zone ON fights(zone_segment_id);

CREATE TABLE IF NOT EXISTS fight_details (
	fight_id    TEXT PRIMARY KEY,
	detail_blob BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS fight_series (
	fight_id    TEXT PRIMARY KEY,
	series_blob BLOB NOT NULL
);
`

// Create opens (creating if absent) the SQLite file at path, applies the
// WAL/synchronous/busy-timeout pragmas outside of any transaction (SQLite
// rejects PRAGMA statements once BEGIN has been issued), and ensures the
// schema exists. Used for writers building a fresh per-log store.
func Create(path string, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.applyPragmas(opts); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Open opens an existing store for read/write access.
func Open(path string, opts Options) (*Store, error) {
	return Create(path, opts) // CREATE TABLE IF NOT EXISTS makes this safe on an existing file too
}

// OpenReadOnly opens an existing store for read-only access, used by the
// multi-log index so it never competes with an in-flight writer.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&immutable=0")
	if err != nil {
		return nil, fmt.Errorf("open store read-only %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: path}, nil
}

func (s *Store) applyPragmas(opts Options) error {
	stmts := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeoutMs),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("pragma %q: %w", stmt, err)
		}
	}
	return nil
}

// Path returns the filesystem path this store was opened from.
func (s *Store) Path() string { return s.path }

// Close flushes and closes the underlying connection. Required before a
// caller renames or deletes the store file (spec §4.5, §5).
func (s *Store) Close() error {
	return s.db.Close()
}
