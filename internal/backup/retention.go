// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package backup

import (
	"context"
	"fmt"
	"os"

	"github.com/tillfold/tillfold/internal/logging"
)

// applyRetention retires successful automatic backups beyond the configured
// keep count: the artifact file is removed (a file that is already gone is a
// no-op) and then the history row is deleted. Manual backups are excluded
// from the count and never retired here.
//
// Each per-record failure is logged and skipped so one bad file cannot abort
// cleanup of the rest; the record stays in history and is retried on the
// next cycle. Running cleanup twice with no new backups in between deletes
// nothing the second time.
func (e *Executor) applyRetention(ctx context.Context) error {
	expired, err := e.history.ListAutoSuccessOlderThan(ctx, e.cfg.RetentionKeep)
	if err != nil {
		return fmt.Errorf("%w: list expired backups: %v", ErrStoreUnavailable, err)
	}
	if len(expired) == 0 {
		return nil
	}

	var deleted int
	var freedMB float64
	for i := range expired {
		rec := &expired[i]

		if rec.FilePath != "" {
			if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
				logging.Warn().Err(err).
					Str("record_id", rec.ID).
					Str("file", rec.FileName).
					Msg("Failed to delete expired backup artifact")
				continue
			}
		}

		if err := e.history.Delete(ctx, rec.ID); err != nil {
			logging.Warn().Err(err).
				Str("record_id", rec.ID).
				Msg("Failed to delete expired backup record")
			continue
		}

		deleted++
		freedMB += rec.SizeMB
	}

	e.metrics.AddRetentionDeleted(deleted)

	if deleted > 0 {
		logging.Info().
			Int("deleted_count", deleted).
			Float64("freed_mb", freedMB).
			Int("keep", e.cfg.RetentionKeep).
			Msg("Retention policy applied")
	}
	return nil
}
