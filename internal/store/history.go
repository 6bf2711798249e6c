// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tillfold/tillfold/internal/backup"
)

// createdAtLayout is the storage format for record timestamps. Nanoseconds
// are zero-padded to a fixed width so that lexicographic order on the TEXT
// column matches chronological order; RFC3339Nano trims trailing zeros and
// would sort "13:00:00Z" after "13:00:00.5Z".
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryStore is the append-only log of backup attempts. Implements
// backup.HistoryStore.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a HistoryStore on the shared connection.
func NewHistoryStore(s *Store) *HistoryStore {
	return &HistoryStore{db: s.db}
}

// Append writes one record.
func (r *HistoryStore) Append(ctx context.Context, rec *backup.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO backup_history
			(id, created_at, kind, file_path, file_name, size_mb, status, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.UTC().Format(createdAtLayout),
		string(rec.Kind),
		rec.FilePath,
		rec.FileName,
		rec.SizeMB,
		string(rec.Status),
		rec.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to append backup record: %w", err)
	}
	return nil
}

// ListRecent returns up to n records ordered newest-first.
func (r *HistoryStore) ListRecent(ctx context.Context, n int) ([]backup.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, kind, file_path, file_name, size_mb, status, note
		FROM backup_history
		ORDER BY created_at DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListAutoSuccessOlderThan returns all successful automatic records except
// the skipMostRecentN newest ones, newest first. These are the records the
// retention policy retires.
func (r *HistoryStore) ListAutoSuccessOlderThan(ctx context.Context, skipMostRecentN int) ([]backup.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, kind, file_path, file_name, size_mb, status, note
		FROM backup_history
		WHERE kind = ? AND status = ?
		ORDER BY created_at DESC
		LIMIT -1 OFFSET ?`,
		string(backup.KindAuto), string(backup.StatusSuccess), skipMostRecentN)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired backup records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Delete removes a record by ID.
func (r *HistoryStore) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM backup_history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete backup record %s: %w", id, err)
	}
	return nil
}

// scanRecords drains rows into records.
func scanRecords(rows *sql.Rows) ([]backup.Record, error) {
	var records []backup.Record
	for rows.Next() {
		var rec backup.Record
		var createdAt, kind, status string

		if err := rows.Scan(&rec.ID, &createdAt, &kind, &rec.FilePath,
			&rec.FileName, &rec.SizeMB, &status, &rec.Note); err != nil {
			return nil, fmt.Errorf("failed to scan backup record: %w", err)
		}

		// RFC3339Nano parsing accepts the fixed-width form as well as rows
		// written before padding was introduced.
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("corrupt created_at on record %s: %w", rec.ID, err)
		}
		rec.Timestamp = ts
		rec.Kind = backup.Kind(kind)
		rec.Status = backup.Status(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backup records: %w", err)
	}
	return records, nil
}
