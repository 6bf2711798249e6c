// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

// Package api provides the HTTP surface of the Tillfold server using the Chi
// router. Responses use a uniform JSON envelope; request bodies are validated
// with go-playground/validator before touching the backup subsystem.
package api

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/tillfold/tillfold/internal/backup"
)

// BackupService is the interface the handlers need from the backup
// scheduler. *backup.Scheduler satisfies it.
type BackupService interface {
	ExecuteBackup(ctx context.Context) (*backup.Record, error)
	UpdateSchedule(ctx context.Context, cfg backup.ScheduleConfig) error
	Schedule() backup.ScheduleConfig
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	backup   BackupService
	history  backup.HistoryStore
	validate *validator.Validate
}

// NewHandler creates a Handler with all dependencies injected.
func NewHandler(svc BackupService, history backup.HistoryStore) *Handler {
	return &Handler{
		backup:   svc,
		history:  history,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}
