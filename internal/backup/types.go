// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package backup

import (
	"fmt"
	"time"
)

// Kind indicates what triggered a backup run.
type Kind string

const (
	// KindAuto marks a run fired by the scheduler.
	KindAuto Kind = "auto"

	// KindManual marks a run fired by an explicit external request.
	KindManual Kind = "manual"
)

// Status represents the outcome of a backup attempt.
type Status string

const (
	// StatusSuccess indicates the attempt produced an artifact.
	StatusSuccess Status = "success"

	// StatusFailed indicates the attempt failed; no artifact exists.
	StatusFailed Status = "failed"
)

// Record is one entry in the append-only backup history. Exactly one Record
// is written per backup attempt and never mutated afterward.
//
// Invariant: a failed record carries empty FilePath/FileName and zero SizeMB.
type Record struct {
	// Unique identifier for the attempt
	ID string `json:"id"`

	// When the attempt started
	Timestamp time.Time `json:"timestamp"`

	// What triggered the attempt
	Kind Kind `json:"kind"`

	// Location of the produced artifact (empty on failure)
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`

	// Artifact size in MB, rounded to 2 decimals (0 on failure)
	SizeMB float64 `json:"size_mb"`

	// Outcome of the attempt
	Status Status `json:"status"`

	// Human-readable detail: failure reason, or a fixed success description
	Note string `json:"note"`
}

// TimeOfDay is a wall-clock trigger point with no date component.
// It is transported as "HH:mm:ss".
type TimeOfDay struct {
	Hour   int `json:"-"`
	Minute int `json:"-"`
	Second int `json:"-"`
}

// ParseTimeOfDay parses the "HH:mm:ss" transport form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04:05", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: expected HH:mm:ss", s)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute(), Second: parsed.Second()}, nil
}

// Validate checks that all components are in range.
func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("invalid time of day: hour must be 0-23, got %d", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("invalid time of day: minute must be 0-59, got %d", t.Minute)
	}
	if t.Second < 0 || t.Second > 59 {
		return fmt.Errorf("invalid time of day: second must be 0-59, got %d", t.Second)
	}
	return nil
}

// String returns the "HH:mm:ss" transport form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On anchors the time of day to the calendar date of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, t.Second, 0, day.Location())
}

// MarshalJSON implements json.Marshaler using the "HH:mm:ss" form.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler using the "HH:mm:ss" form.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid time of day: expected JSON string")
	}
	parsed, err := ParseTimeOfDay(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ScheduleConfig is the persisted singleton governing automatic execution.
type ScheduleConfig struct {
	// Daily trigger point
	Time TimeOfDay `json:"time"`

	// When false the scheduler must not execute backups automatically.
	// Manual triggers remain allowed.
	Enabled bool `json:"enabled"`
}

// DefaultScheduleConfig returns the schedule seeded when none is persisted:
// daily at 13:00:00, enabled.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		Time:    TimeOfDay{Hour: 13},
		Enabled: true,
	}
}
