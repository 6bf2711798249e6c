// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tillfold/tillfold/internal/backup"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestScheduleStoreSeedsDefault(t *testing.T) {
	s := openTestStore(t)
	def := backup.ScheduleConfig{Time: backup.TimeOfDay{Hour: 2, Minute: 30}, Enabled: true}
	repo := NewScheduleStore(s, def)

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, def, got)

	// The seed must be persisted, not recomputed per call.
	again, err := NewScheduleStore(s, backup.ScheduleConfig{}).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, def, again)
}

func TestScheduleStoreUpsert(t *testing.T) {
	s := openTestStore(t)
	repo := NewScheduleStore(s, backup.DefaultScheduleConfig())
	ctx := context.Background()

	cfg := backup.ScheduleConfig{Time: backup.TimeOfDay{Hour: 4, Minute: 15, Second: 30}, Enabled: false}
	require.NoError(t, repo.Upsert(ctx, cfg))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, cfg, got)

	// Second upsert overwrites the singleton row.
	cfg2 := backup.ScheduleConfig{Time: backup.TimeOfDay{Hour: 23}, Enabled: true}
	require.NoError(t, repo.Upsert(ctx, cfg2))

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, cfg2, got)
}

func makeRecord(i int, kind backup.Kind, status backup.Status, at time.Time) *backup.Record {
	rec := &backup.Record{
		ID:        fmt.Sprintf("rec-%03d", i),
		Timestamp: at,
		Kind:      kind,
		Status:    status,
	}
	if status == backup.StatusSuccess {
		rec.FilePath = fmt.Sprintf("/data/backups/b%03d.sqlite.gz", i)
		rec.FileName = fmt.Sprintf("b%03d.sqlite.gz", i)
		rec.SizeMB = 1.25
		rec.Note = "Database backup completed"
	} else {
		rec.Note = "engine failed"
	}
	return rec
}

func TestHistoryStoreAppendAndList(t *testing.T) {
	s := openTestStore(t)
	repo := NewHistoryStore(s)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	for i := range 5 {
		rec := makeRecord(i, backup.KindAuto, backup.StatusSuccess, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Append(ctx, rec))
	}

	records, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "rec-004", records[0].ID, "newest first")
	require.Equal(t, "rec-002", records[2].ID)

	// Round-trip fidelity of one record.
	require.Equal(t, backup.KindAuto, records[0].Kind)
	require.Equal(t, backup.StatusSuccess, records[0].Status)
	require.Equal(t, 1.25, records[0].SizeMB)
	require.True(t, records[0].Timestamp.Equal(base.Add(4*time.Hour)))
}

func TestHistoryStoreOrderingAcrossPrecision(t *testing.T) {
	s := openTestStore(t)
	repo := NewHistoryStore(s)
	ctx := context.Background()

	// A whole-second timestamp and a fractional one inside the same second:
	// the fractional record is newer and must list first.
	whole := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	fractional := whole.Add(500 * time.Millisecond)

	require.NoError(t, repo.Append(ctx, makeRecord(0, backup.KindAuto, backup.StatusSuccess, whole)))
	require.NoError(t, repo.Append(ctx, makeRecord(1, backup.KindAuto, backup.StatusSuccess, fractional)))

	records, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "rec-001", records[0].ID, "fractional-second record is newer")
	require.Equal(t, "rec-000", records[1].ID)
	require.True(t, records[0].Timestamp.Equal(fractional))

	expired, err := repo.ListAutoSuccessOlderThan(ctx, 1)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, "rec-000", expired[0].ID, "retention must keep the newer record")
}

func TestHistoryStoreFailedRecordShape(t *testing.T) {
	s := openTestStore(t)
	repo := NewHistoryStore(s)
	ctx := context.Background()

	rec := makeRecord(0, backup.KindManual, backup.StatusFailed, time.Now().UTC())
	require.NoError(t, repo.Append(ctx, rec))

	records, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Empty(t, records[0].FilePath)
	require.Empty(t, records[0].FileName)
	require.Zero(t, records[0].SizeMB)
	require.Equal(t, "engine failed", records[0].Note)
}

func TestHistoryStoreListAutoSuccessOlderThan(t *testing.T) {
	s := openTestStore(t)
	repo := NewHistoryStore(s)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, repo.Append(ctx,
			makeRecord(i, backup.KindAuto, backup.StatusSuccess, base.Add(time.Duration(i)*time.Hour))))
	}
	// Manual and failed records never count against retention.
	require.NoError(t, repo.Append(ctx,
		makeRecord(10, backup.KindManual, backup.StatusSuccess, base.Add(10*time.Hour))))
	require.NoError(t, repo.Append(ctx,
		makeRecord(11, backup.KindAuto, backup.StatusFailed, base.Add(11*time.Hour))))

	expired, err := repo.ListAutoSuccessOlderThan(ctx, 2)
	require.NoError(t, err)
	require.Len(t, expired, 3)
	require.Equal(t, "rec-002", expired[0].ID, "newest of the expired first")
	require.Equal(t, "rec-000", expired[2].ID)

	// Keeping more than exist expires nothing.
	expired, err = repo.ListAutoSuccessOlderThan(ctx, 30)
	require.NoError(t, err)
	require.Empty(t, expired)
}

func TestHistoryStoreDelete(t *testing.T) {
	s := openTestStore(t)
	repo := NewHistoryStore(s)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx,
		makeRecord(0, backup.KindAuto, backup.StatusSuccess, time.Now().UTC())))
	require.NoError(t, repo.Delete(ctx, "rec-000"))

	records, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, records)

	// Deleting a missing ID is not an error.
	require.NoError(t, repo.Delete(ctx, "rec-000"))
}
