// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package api

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status          string `json:"status"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	BackupScheduled bool   `json:"backup_scheduled"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, HealthStatus{
		Status:          "healthy",
		UptimeSeconds:   int64(time.Since(startTime).Seconds()),
		BackupScheduled: h.backup.Schedule().Enabled,
	})
}
