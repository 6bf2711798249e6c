// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

// Package store provides SQLite-backed persistence for the backup subsystem:
// the singleton schedule row, the append-only backup history, and the backup
// engine that snapshots the live POS database.
//
// The rest of the Tillfold schema (products, staff, customers, sales) lives
// in the same database file but is owned by the POS services, not by this
// package.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database connection shared by the backup stores.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and ensures the backup
// schema exists. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying connection for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

const schema = `
CREATE TABLE IF NOT EXISTS backup_schedule (
	id             INTEGER PRIMARY KEY CHECK (id = 1),
	scheduled_time TEXT    NOT NULL,
	enabled        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS backup_history (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	kind       TEXT NOT NULL,
	file_path  TEXT NOT NULL DEFAULT '',
	file_name  TEXT NOT NULL DEFAULT '',
	size_mb    REAL NOT NULL DEFAULT 0,
	status     TEXT NOT NULL,
	note       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_backup_history_created_at
	ON backup_history (created_at DESC);

CREATE INDEX IF NOT EXISTS idx_backup_history_kind_status
	ON backup_history (kind, status, created_at DESC);
`

// migrate creates the backup tables and indexes.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create backup schema: %w", err)
	}
	return nil
}
