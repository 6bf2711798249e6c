// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

// Package backup implements automated database backups for the Tillfold POS
// server: a long-lived scheduler, a serialized executor, and a retention
// policy over the backup history.
//
// # Architecture
//
//	┌───────────┐     ┌──────────┐     ┌────────┐
//	│ Scheduler │────▶│ Executor │────▶│ Engine │
//	└───────────┘     └──────────┘     └────────┘
//	      │                 │
//	      ▼                 ▼
//	┌───────────────┐ ┌──────────────┐
//	│ ScheduleStore │ │ HistoryStore │
//	└───────────────┘ └──────────────┘
//
// The Scheduler owns a mutex-guarded cached copy of the persisted schedule
// (time of day + enabled flag), re-reads it every cycle, and fires the
// Executor once per calendar day at the configured wall-clock time. The
// Executor performs exactly one backup attempt end to end and appends exactly
// one history record per attempt, success or failure. After a successful
// automatic run it retires old automatic backups beyond the configured keep
// count; manual backups are never retired.
//
// # Lifecycle
//
//	exec := backup.NewExecutor(execCfg, engine, history, backup.SystemClock(), m)
//	sched := backup.NewScheduler(schedCfg, scheduleStore, exec, backup.SystemClock())
//
//	go sched.Run(ctx)                  // blocks until ctx is cancelled
//	rec, err := sched.ExecuteBackup(ctx) // manual trigger, any time
//	err = sched.UpdateSchedule(ctx, cfg) // live reconfiguration, no restart
//
// # Failure semantics
//
// The scheduler loop never terminates on a transient error: schedule-store
// read failures degrade to the last known schedule, and executor failures are
// logged and recorded in history but never escape the loop. Only context
// cancellation ends Run. Error kinds are exposed as sentinel errors
// (ErrEngine, ErrPersistence, ...) so callers and tests can assert on which
// failure occurred rather than on log output.
//
// All dependencies (clock, engine, stores) are injected interfaces so the
// next-run computation, retention cutoffs, and loop behavior are testable
// without a running database or real time.
package backup
