// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package backup

import "time"

// Clock abstracts wall-clock time so next-run computation and retention
// cutoffs can be tested with a fake.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time

	// After waits for the duration to elapse and then delivers the current
	// time on the returned channel, like time.After.
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}
