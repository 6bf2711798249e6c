// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tillfold/tillfold/internal/backup"
	"github.com/tillfold/tillfold/internal/logging"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// RunBackup handles POST /api/v1/backup/run. It triggers a manual backup
// synchronously and returns the resulting history record: 200 when the
// backup succeeded, 502 when the attempt ran and failed.
func (h *Handler) RunBackup(w http.ResponseWriter, r *http.Request) {
	rec, err := h.backup.ExecuteBackup(r.Context())
	if err != nil {
		if errors.Is(err, backup.ErrPersistence) {
			// The attempt outcome could not be recorded; history can no
			// longer be trusted to reflect what ran.
			respondError(w, http.StatusInternalServerError, "HISTORY_WRITE_FAILED",
				"Backup ran but its outcome could not be recorded", err)
			return
		}
		if rec == nil {
			respondError(w, http.StatusInternalServerError, "BACKUP_ERROR",
				"Backup could not be started", err)
			return
		}

		logging.Error().Err(err).Str("record_id", rec.ID).Msg("Manual backup failed")
		respondJSON(w, http.StatusBadGateway, &APIResponse{
			Status:   "error",
			Data:     rec,
			Metadata: Metadata{Timestamp: time.Now()},
			Error: &APIError{
				Code:    "BACKUP_FAILED",
				Message: "Backup failed; see record note for details",
			},
		})
		return
	}

	respondSuccess(w, http.StatusOK, rec)
}

// History handles GET /api/v1/backup/history. The optional limit query
// parameter caps the number of records returned, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT",
				"limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "HISTORY_READ_FAILED",
			"Failed to read backup history", err)
		return
	}
	if records == nil {
		records = []backup.Record{}
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   records,
		Metadata: Metadata{
			Timestamp: time.Now(),
			Count:     len(records),
		},
	})
}

// GetSchedule handles GET /api/v1/backup/schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.backup.Schedule())
}

// UpdateScheduleRequest is the request body for updating the schedule.
type UpdateScheduleRequest struct {
	Time    string `json:"time" validate:"required"`
	Enabled *bool  `json:"enabled" validate:"required"`
}

// UpdateSchedule handles PUT /api/v1/backup/schedule. The new schedule is
// persisted and takes effect without a restart.
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY",
			"Request body must be valid JSON", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"time and enabled are required", err)
		return
	}

	tod, err := backup.ParseTimeOfDay(req.Time)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_TIME",
			"time must be HH:mm:ss", err)
		return
	}

	cfg := backup.ScheduleConfig{Time: tod, Enabled: *req.Enabled}
	if err := h.backup.UpdateSchedule(r.Context(), cfg); err != nil {
		respondError(w, http.StatusInternalServerError, "SCHEDULE_WRITE_FAILED",
			"Failed to persist schedule", err)
		return
	}

	respondSuccess(w, http.StatusOK, cfg)
}
