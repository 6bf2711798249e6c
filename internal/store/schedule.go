// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tillfold/tillfold/internal/backup"
)

// ScheduleStore persists the singleton backup schedule row. Implements
// backup.ScheduleStore.
type ScheduleStore struct {
	db  *sql.DB
	def backup.ScheduleConfig
}

// NewScheduleStore creates a ScheduleStore on the shared connection. def is
// the schedule seeded when no row has ever been written.
func NewScheduleStore(s *Store, def backup.ScheduleConfig) *ScheduleStore {
	return &ScheduleStore{db: s.db, def: def}
}

// Get returns the persisted schedule. When no row has ever been written, the
// default schedule is seeded and returned, so callers never see "absent".
func (r *ScheduleStore) Get(ctx context.Context) (backup.ScheduleConfig, error) {
	var timeStr string
	var enabled bool

	err := r.db.QueryRowContext(ctx,
		`SELECT scheduled_time, enabled FROM backup_schedule WHERE id = 1`,
	).Scan(&timeStr, &enabled)

	if errors.Is(err, sql.ErrNoRows) {
		cfg := r.def
		if err := r.Upsert(ctx, cfg); err != nil {
			return backup.ScheduleConfig{}, fmt.Errorf("failed to seed default schedule: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return backup.ScheduleConfig{}, fmt.Errorf("failed to read schedule: %w", err)
	}

	tod, err := backup.ParseTimeOfDay(timeStr)
	if err != nil {
		return backup.ScheduleConfig{}, fmt.Errorf("corrupt schedule row: %w", err)
	}

	return backup.ScheduleConfig{Time: tod, Enabled: enabled}, nil
}

// Upsert replaces the singleton schedule row.
func (r *ScheduleStore) Upsert(ctx context.Context, cfg backup.ScheduleConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO backup_schedule (id, scheduled_time, enabled)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			scheduled_time = excluded.scheduled_time,
			enabled        = excluded.enabled`,
		cfg.Time.String(), cfg.Enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule: %w", err)
	}
	return nil
}
