// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

// Package metrics exposes Prometheus instrumentation for the backup
// subsystem. All collectors are registered on a caller-supplied registry so
// tests can use an isolated one.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the backup subsystem's Prometheus collectors. A nil *Metrics
// is valid and records nothing, which keeps instrumentation optional in
// tests.
type Metrics struct {
	backupAttempts       *prometheus.CounterVec
	backupDuration       prometheus.Histogram
	retentionDeleted     prometheus.Counter
	historyWriteFailures prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		backupAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tillfold_backup_attempts_total",
			Help: "Backup attempts by kind and status.",
		}, []string{"kind", "status"}),
		backupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "tillfold_backup_duration_seconds",
			Help: "Duration of backup attempts.",
			// Backups range from sub-second on tiny stores to an hour on
			// large ones.
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
		retentionDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tillfold_backup_retention_deleted_total",
			Help: "Backups removed by the retention policy.",
		}),
		historyWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tillfold_backup_history_write_failures_total",
			Help: "Backup history appends that failed after retry.",
		}),
	}

	reg.MustRegister(m.backupAttempts, m.backupDuration, m.retentionDeleted, m.historyWriteFailures)
	return m
}

// ObserveBackup records one backup attempt.
func (m *Metrics) ObserveBackup(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.backupAttempts.WithLabelValues(kind, status).Inc()
	m.backupDuration.Observe(d.Seconds())
}

// AddHistoryWriteFailure records one history append that failed after retry.
func (m *Metrics) AddHistoryWriteFailure() {
	if m == nil {
		return
	}
	m.historyWriteFailures.Inc()
}

// AddRetentionDeleted records n backups removed by retention cleanup.
func (m *Metrics) AddRetentionDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.retentionDeleted.Add(float64(n))
}
