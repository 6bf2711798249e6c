// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package backup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tillfold/tillfold/internal/logging"
)

// Runner is the execution dependency of the Scheduler. Satisfied by *Executor.
type Runner interface {
	RunBackup(ctx context.Context, kind Kind) (*Record, error)
}

// SchedulerConfig holds the scheduler's pacing knobs.
type SchedulerConfig struct {
	// DisabledPollInterval is how long the loop sleeps between enablement
	// re-checks while the schedule is disabled. Default: 1 hour.
	DisabledPollInterval time.Duration

	// ErrorRetryInterval is how long the loop backs off after a failed
	// automatic run before resuming normal scheduling. Default: 1 hour.
	ErrorRetryInterval time.Duration
}

// Scheduler drives periodic backup execution according to the live schedule
// while exposing safe concurrent entry points for manual triggering and
// schedule updates.
//
// The cached {time, enabled} pair is read and written under a single mutex so
// readers never observe a torn update. An update takes effect no later than
// the next reload cycle; UpdateSchedule additionally wakes an in-progress
// sleep so the new value usually applies immediately.
type Scheduler struct {
	cfg      SchedulerConfig
	schedule ScheduleStore
	runner   Runner
	clock    Clock

	mu      sync.Mutex
	current ScheduleConfig

	// wake pre-empts a sleep when the schedule changes
	wake chan struct{}
}

// NewScheduler creates a Scheduler with the default schedule cached until the
// first reload.
func NewScheduler(cfg SchedulerConfig, schedule ScheduleStore, runner Runner, clock Clock) *Scheduler {
	if cfg.DisabledPollInterval <= 0 {
		cfg.DisabledPollInterval = time.Hour
	}
	if cfg.ErrorRetryInterval <= 0 {
		cfg.ErrorRetryInterval = time.Hour
	}
	return &Scheduler{
		cfg:      cfg,
		schedule: schedule,
		runner:   runner,
		clock:    clock,
		current:  DefaultScheduleConfig(),
		wake:     make(chan struct{}, 1),
	}
}

// Run is the scheduler loop. It blocks until ctx is cancelled and returns
// ctx.Err(); no transient error terminates it. Each iteration reloads the
// schedule (best-effort), sleeps until the next trigger point, and fires an
// automatic backup if still enabled. Cancellation interrupts sleeps, not
// backups: an in-flight attempt finishes and the loop exits afterwards.
func (s *Scheduler) Run(ctx context.Context) error {
	logging.Info().
		Str("component", "backup-scheduler").
		Str("schedule", s.Schedule().Time.String()).
		Bool("enabled", s.Schedule().Enabled).
		Msg("Backup scheduler started")

	for {
		if err := s.reload(ctx); err != nil {
			logging.Warn().Err(err).Msg("Schedule reload failed, keeping last known schedule")
		}

		cfg := s.Schedule()
		if !cfg.Enabled {
			if _, err := s.sleep(ctx, s.cfg.DisabledPollInterval); err != nil {
				return err
			}
			continue
		}

		now := s.clock.Now()
		next := NextRun(now, cfg.Time)
		logging.Debug().Time("next_run", next).Msg("Sleeping until next scheduled backup")

		woke, err := s.sleep(ctx, next.Sub(now))
		if err != nil {
			return err
		}
		if woke {
			// Schedule changed mid-sleep; recompute from the new value.
			continue
		}

		// Re-validate enablement on wake: the schedule may have been
		// disabled while we slept.
		if cur := s.Schedule(); !cur.Enabled {
			continue
		}

		if err := s.executeJob(ctx, KindAuto); err != nil {
			if _, serr := s.sleep(ctx, s.cfg.ErrorRetryInterval); serr != nil {
				return serr
			}
		}
	}
}

// ExecuteBackup is the manual trigger. It runs through the same executor and
// serialization as automatic runs, independent of the enabled flag, and
// returns the definite outcome of the attempt.
func (s *Scheduler) ExecuteBackup(ctx context.Context) (*Record, error) {
	rec, err := s.runner.RunBackup(ctx, KindManual)
	if err != nil {
		logging.Error().Err(err).Str("kind", string(KindManual)).Msg("Manual backup failed")
		return rec, err
	}
	logging.Info().
		Str("file", rec.FileName).
		Float64("size_mb", rec.SizeMB).
		Msg("Manual backup completed")
	return rec, nil
}

// UpdateSchedule validates and persists the new schedule, then atomically
// replaces the cached copy and wakes the loop so a long sleep does not keep
// serving the old value.
func (s *Scheduler) UpdateSchedule(ctx context.Context, cfg ScheduleConfig) error {
	if err := cfg.Time.Validate(); err != nil {
		return err
	}
	if err := s.schedule.Upsert(ctx, cfg); err != nil {
		return fmt.Errorf("%w: persist schedule: %v", ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	logging.Info().
		Str("time", cfg.Time.String()).
		Bool("enabled", cfg.Enabled).
		Msg("Backup schedule updated")

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Schedule returns the cached schedule.
func (s *Scheduler) Schedule() ScheduleConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// reload re-reads the persisted schedule into the cache. On failure the
// cache keeps the last good value.
func (s *Scheduler) reload(ctx context.Context) error {
	cfg, err := s.schedule.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: read schedule: %v", ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return nil
}

// executeJob fires one backup run and never lets an executor error escape;
// the returned error is only used by the loop for backoff pacing. Failed
// attempts are already recorded in history by the executor.
func (s *Scheduler) executeJob(ctx context.Context, kind Kind) error {
	rec, err := s.runner.RunBackup(ctx, kind)
	if err != nil {
		event := logging.Error().Err(err).Str("kind", string(kind))
		if errors.Is(err, ErrPersistence) {
			event = event.Bool("history_unreliable", true)
		}
		event.Msg("Scheduled backup failed")
		return err
	}
	logging.Info().
		Str("file", rec.FileName).
		Float64("size_mb", rec.SizeMB).
		Msg("Scheduled backup completed")
	return nil
}

// sleep waits for d, a wake signal, or cancellation, whichever comes first.
// woke reports a wake-signal interrupt; err is non-nil only on cancellation.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) (woke bool, err error) {
	if d <= 0 {
		return false, ctx.Err()
	}
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.wake:
		return true, nil
	case <-s.clock.After(d):
		return false, nil
	}
}

// NextRun computes the next trigger point strictly after now: today at the
// scheduled time if that is still ahead, otherwise tomorrow. Exactly one
// trigger per calendar day, never in the past.
func NextRun(now time.Time, at TimeOfDay) time.Time {
	next := at.On(now)
	if next.After(now) {
		return next
	}
	return at.On(now.AddDate(0, 0, 1))
}
