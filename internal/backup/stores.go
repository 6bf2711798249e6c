// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package backup

import "context"

// ScheduleStore persists the singleton backup schedule. Implementations must
// seed their default schedule when none has ever been written, so Get never
// reports "absent" to callers.
type ScheduleStore interface {
	// Get returns the persisted schedule.
	Get(ctx context.Context) (ScheduleConfig, error)

	// Upsert replaces the persisted schedule. The schedule is never deleted.
	Upsert(ctx context.Context, cfg ScheduleConfig) error
}

// HistoryStore is the append-only log of backup attempts.
type HistoryStore interface {
	// Append writes one record. Records are never mutated afterward.
	Append(ctx context.Context, rec *Record) error

	// ListRecent returns up to n records ordered newest-first.
	ListRecent(ctx context.Context, n int) ([]Record, error)

	// ListAutoSuccessOlderThan returns all successful automatic records
	// except the skipMostRecentN newest ones, oldest last. Manual and failed
	// records are never included.
	ListAutoSuccessOlderThan(ctx context.Context, skipMostRecentN int) ([]Record, error)

	// Delete removes a record by ID. Used only by retention cleanup.
	Delete(ctx context.Context, id string) error
}

// Engine is the database backup primitive: it produces a compressed full
// backup artifact at destPath, honoring ctx for cancellation and deadline.
type Engine interface {
	Backup(ctx context.Context, destPath string) error
}
