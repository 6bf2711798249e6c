// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package backup

import "errors"

// Error kinds surfaced by the backup subsystem. Every error returned by the
// Executor and Scheduler wraps exactly one of these sentinels, so callers
// can assert the failure class with errors.Is.
var (
	// ErrConfiguration means no backup target is configured.
	ErrConfiguration = errors.New("backup target not configured")

	// ErrEngine means the underlying backup command failed or timed out.
	ErrEngine = errors.New("backup engine failure")

	// ErrFilesystem means directory or artifact file I/O failed.
	ErrFilesystem = errors.New("backup filesystem failure")

	// ErrPersistence means the history record could not be written. This is
	// the most serious kind: it breaks the one-record-per-attempt guarantee
	// and is escalated loudly rather than swallowed.
	ErrPersistence = errors.New("backup history write failed")

	// ErrStoreUnavailable means the schedule or history store is unreachable.
	ErrStoreUnavailable = errors.New("backup store unavailable")
)
