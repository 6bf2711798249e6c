// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package backup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tillfold/tillfold/internal/logging"
	"github.com/tillfold/tillfold/internal/metrics"
)

// successNote is the fixed description written on every successful attempt.
const successNote = "Database backup completed"

// ExecutorConfig holds the settings one backup attempt needs.
type ExecutorConfig struct {
	// DatabaseName is the logical name of the backup target. An empty name
	// fails the attempt fast with ErrConfiguration.
	DatabaseName string

	// Dir is the destination directory for artifacts; created if missing.
	Dir string

	// EngineTimeout bounds the engine call. Backups of large databases must
	// not be cut off by a short default, so this defaults to an hour.
	EngineTimeout time.Duration

	// RetentionKeep is how many successful automatic backups survive cleanup.
	RetentionKeep int
}

// Executor performs one backup attempt end to end and guarantees a history
// record is written regardless of outcome.
//
// RunBackup invocations are serialized by an internal mutex: the backup
// engine requires exclusivity on the target, so a manual trigger fired while
// an automatic run is mid-flight waits for it to finish.
type Executor struct {
	cfg     ExecutorConfig
	engine  Engine
	history HistoryStore
	clock   Clock
	metrics *metrics.Metrics

	mu sync.Mutex
}

// NewExecutor creates an Executor. metrics may be nil.
func NewExecutor(cfg ExecutorConfig, engine Engine, history HistoryStore, clock Clock, m *metrics.Metrics) *Executor {
	if cfg.EngineTimeout <= 0 {
		cfg.EngineTimeout = time.Hour
	}
	if cfg.RetentionKeep <= 0 {
		cfg.RetentionKeep = 30
	}
	return &Executor{
		cfg:     cfg,
		engine:  engine,
		history: history,
		clock:   clock,
		metrics: m,
	}
}

// RunBackup performs exactly one backup attempt and appends exactly one
// history record. The record is returned in both outcomes; err carries the
// failure kind for the caller to log. After a successful automatic run,
// retention cleanup is applied; cleanup failures are logged independently
// and never fail the backup itself.
//
// Cancelling ctx does not abort an attempt: once started it runs to
// completion, bounded only by the engine timeout. Shutdown and client
// disconnects must not cut a backup off mid-flight or lose its record.
//
// The one case where no record exists is when the history store itself is
// unreachable: that surfaces as ErrPersistence after one retry.
func (e *Executor) RunBackup(ctx context.Context, kind Kind) (*Record, error) {
	ctx = context.WithoutCancel(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.clock.Now()
	rec, runErr := e.attempt(ctx, kind, start)

	if err := e.appendWithRetry(ctx, rec); err != nil {
		// The attempt's own outcome still counts under its real status; the
		// lost record is tracked separately.
		e.metrics.ObserveBackup(string(kind), string(rec.Status), e.clock.Now().Sub(start))
		e.metrics.AddHistoryWriteFailure()
		return rec, err
	}

	e.metrics.ObserveBackup(string(kind), string(rec.Status), e.clock.Now().Sub(start))

	if runErr != nil {
		return rec, runErr
	}

	if kind == KindAuto {
		if err := e.applyRetention(ctx); err != nil {
			logging.Warn().Err(err).Msg("Retention cleanup failed")
		}
	}

	return rec, nil
}

// attempt runs the backup mechanism and builds the record for the outcome.
// It never writes to the history store.
func (e *Executor) attempt(ctx context.Context, kind Kind, start time.Time) (*Record, error) {
	if e.cfg.DatabaseName == "" {
		err := fmt.Errorf("%w: database name is empty", ErrConfiguration)
		return failedRecord(kind, start, err), err
	}

	// Timestamp plus a random suffix so repeated runs never overwrite each
	// other, even within the same second.
	fileName := fmt.Sprintf("%s_%s_%s_%s.sqlite.gz",
		e.cfg.DatabaseName, kind, start.Format("20060102_150405"), uuid.NewString()[:8])

	if err := os.MkdirAll(e.cfg.Dir, 0o750); err != nil {
		err = fmt.Errorf("%w: create backup directory %s: %v", ErrFilesystem, e.cfg.Dir, err)
		return failedRecord(kind, start, err), err
	}

	destPath := filepath.Join(e.cfg.Dir, fileName)

	engCtx, cancel := context.WithTimeout(ctx, e.cfg.EngineTimeout)
	defer cancel()

	if err := e.engine.Backup(engCtx, destPath); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: timed out after %s", ErrEngine, e.cfg.EngineTimeout)
		} else {
			err = fmt.Errorf("%w: %v", ErrEngine, err)
		}
		return failedRecord(kind, start, err), err
	}

	info, err := os.Stat(destPath)
	if err != nil {
		err = fmt.Errorf("%w: stat artifact: %v", ErrFilesystem, err)
		return failedRecord(kind, start, err), err
	}

	return &Record{
		ID:        uuid.NewString(),
		Timestamp: start,
		Kind:      kind,
		FilePath:  destPath,
		FileName:  fileName,
		SizeMB:    roundMB(info.Size()),
		Status:    StatusSuccess,
		Note:      successNote,
	}, nil
}

// appendWithRetry persists the record, retrying once. A second failure means
// the history log itself is unreliable, which is escalated loudly.
func (e *Executor) appendWithRetry(ctx context.Context, rec *Record) error {
	err := e.history.Append(ctx, rec)
	if err == nil {
		return nil
	}
	logging.Warn().Err(err).Str("record_id", rec.ID).Msg("History append failed, retrying once")

	if err = e.history.Append(ctx, rec); err != nil {
		logging.Error().Err(err).
			Str("record_id", rec.ID).
			Bool("history_unreliable", true).
			Msg("History append failed twice, backup record lost")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// failedRecord builds the record for a failed attempt. Failed records never
// carry an artifact path or size.
func failedRecord(kind Kind, start time.Time, cause error) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Timestamp: start,
		Kind:      kind,
		Status:    StatusFailed,
		Note:      cause.Error(),
	}
}

// roundMB converts bytes to MB rounded to 2 decimals.
func roundMB(bytes int64) float64 {
	return math.Round(float64(bytes)/(1024*1024)*100) / 100
}
