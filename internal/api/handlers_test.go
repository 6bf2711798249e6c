// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillfold/tillfold/internal/backup"
)

// fakeBackupService implements BackupService for handler tests.
type fakeBackupService struct {
	record    *backup.Record
	runErr    error
	schedule  backup.ScheduleConfig
	updateErr error
	updated   *backup.ScheduleConfig
}

func (f *fakeBackupService) ExecuteBackup(_ context.Context) (*backup.Record, error) {
	return f.record, f.runErr
}

func (f *fakeBackupService) UpdateSchedule(_ context.Context, cfg backup.ScheduleConfig) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = &cfg
	f.schedule = cfg
	return nil
}

func (f *fakeBackupService) Schedule() backup.ScheduleConfig {
	return f.schedule
}

// fakeHistory implements backup.HistoryStore for handler tests.
type fakeHistory struct {
	records   []backup.Record
	listErr   error
	lastLimit int
}

func (f *fakeHistory) Append(_ context.Context, _ *backup.Record) error { return nil }

func (f *fakeHistory) ListRecent(_ context.Context, n int) ([]backup.Record, error) {
	f.lastLimit = n
	if f.listErr != nil {
		return nil, f.listErr
	}
	if n > len(f.records) {
		n = len(f.records)
	}
	return f.records[:n], nil
}

func (f *fakeHistory) ListAutoSuccessOlderThan(_ context.Context, _ int) ([]backup.Record, error) {
	return nil, nil
}

func (f *fakeHistory) Delete(_ context.Context, _ string) error { return nil }

func newTestRouter(svc BackupService, history backup.HistoryStore) http.Handler {
	return NewRouter(NewHandler(svc, history), RouterConfig{
		CORSOrigins:     []string{"*"},
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
	})
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), "body: %s", rr.Body.String())
	return rr, resp
}

func successRecord() *backup.Record {
	return &backup.Record{
		ID:        "rec-1",
		Timestamp: time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC),
		Kind:      backup.KindManual,
		FilePath:  "/data/backups/tillfold_manual.sqlite.gz",
		FileName:  "tillfold_manual.sqlite.gz",
		SizeMB:    2.5,
		Status:    backup.StatusSuccess,
		Note:      "Database backup completed",
	}
}

func TestRunBackupSuccess(t *testing.T) {
	svc := &fakeBackupService{record: successRecord()}
	router := newTestRouter(svc, &fakeHistory{})

	rr, resp := doRequest(t, router, http.MethodPost, "/api/v1/backup/run", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "success", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var rec backup.Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, 2.5, rec.SizeMB)
}

func TestRunBackupFailedAttempt(t *testing.T) {
	rec := &backup.Record{
		ID:     "rec-2",
		Kind:   backup.KindManual,
		Status: backup.StatusFailed,
		Note:   "engine: disk on fire",
	}
	svc := &fakeBackupService{record: rec, runErr: fmt.Errorf("engine: disk on fire")}
	router := newTestRouter(svc, &fakeHistory{})

	rr, resp := doRequest(t, router, http.MethodPost, "/api/v1/backup/run", "")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "BACKUP_FAILED", resp.Error.Code)
	assert.NotNil(t, resp.Data, "failed record travels with the error")
}

func TestRunBackupHistoryUnreliable(t *testing.T) {
	svc := &fakeBackupService{
		record: successRecord(),
		runErr: fmt.Errorf("%w: db locked", backup.ErrPersistence),
	}
	router := newTestRouter(svc, &fakeHistory{})

	rr, resp := doRequest(t, router, http.MethodPost, "/api/v1/backup/run", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "HISTORY_WRITE_FAILED", resp.Error.Code)
}

func TestHistoryDefaultLimit(t *testing.T) {
	history := &fakeHistory{records: []backup.Record{*successRecord()}}
	router := newTestRouter(&fakeBackupService{}, history)

	rr, resp := doRequest(t, router, http.MethodGet, "/api/v1/backup/history", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 50, history.lastLimit)
	assert.Equal(t, 1, resp.Metadata.Count)
}

func TestHistoryLimitValidation(t *testing.T) {
	router := newTestRouter(&fakeBackupService{}, &fakeHistory{})

	for _, bad := range []string{"0", "-5", "abc"} {
		rr, resp := doRequest(t, router, http.MethodGet, "/api/v1/backup/history?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, "limit=%s", bad)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INVALID_LIMIT", resp.Error.Code)
	}
}

func TestHistoryLimitCapped(t *testing.T) {
	history := &fakeHistory{}
	router := newTestRouter(&fakeBackupService{}, history)

	rr, _ := doRequest(t, router, http.MethodGet, "/api/v1/backup/history?limit=99999", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, maxHistoryLimit, history.lastLimit)
}

func TestHistoryEmptyIsArray(t *testing.T) {
	router := newTestRouter(&fakeBackupService{}, &fakeHistory{})

	rr, _ := doRequest(t, router, http.MethodGet, "/api/v1/backup/history", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[]`)
}

func TestGetSchedule(t *testing.T) {
	svc := &fakeBackupService{schedule: backup.ScheduleConfig{
		Time: backup.TimeOfDay{Hour: 13}, Enabled: true,
	}}
	router := newTestRouter(svc, &fakeHistory{})

	rr, _ := doRequest(t, router, http.MethodGet, "/api/v1/backup/schedule", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"time":"13:00:00"`)
	assert.Contains(t, rr.Body.String(), `"enabled":true`)
}

func TestUpdateSchedule(t *testing.T) {
	svc := &fakeBackupService{}
	router := newTestRouter(svc, &fakeHistory{})

	rr, resp := doRequest(t, router, http.MethodPut, "/api/v1/backup/schedule",
		`{"time":"02:30:00","enabled":false}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "success", resp.Status)
	require.NotNil(t, svc.updated)
	assert.Equal(t, backup.TimeOfDay{Hour: 2, Minute: 30}, svc.updated.Time)
	assert.False(t, svc.updated.Enabled)
}

func TestUpdateScheduleValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"invalid json", `{`, "INVALID_BODY"},
		{"missing time", `{"enabled":true}`, "VALIDATION_ERROR"},
		{"missing enabled", `{"time":"13:00:00"}`, "VALIDATION_ERROR"},
		{"bad time format", `{"time":"1pm","enabled":true}`, "INVALID_TIME"},
		{"out of range", `{"time":"25:00:00","enabled":true}`, "INVALID_TIME"},
	}

	svc := &fakeBackupService{}
	router := newTestRouter(svc, &fakeHistory{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, resp := doRequest(t, router, http.MethodPut, "/api/v1/backup/schedule", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
	assert.Nil(t, svc.updated, "invalid requests must not reach the scheduler")
}

func TestUpdateScheduleStoreFailure(t *testing.T) {
	svc := &fakeBackupService{updateErr: errors.New("disk full")}
	router := newTestRouter(svc, &fakeHistory{})

	rr, resp := doRequest(t, router, http.MethodPut, "/api/v1/backup/schedule",
		`{"time":"13:00:00","enabled":true}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SCHEDULE_WRITE_FAILED", resp.Error.Code)
}

func TestHealth(t *testing.T) {
	svc := &fakeBackupService{schedule: backup.ScheduleConfig{Enabled: true}}
	router := newTestRouter(svc, &fakeHistory{})

	rr, resp := doRequest(t, router, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "success", resp.Status)
	assert.Contains(t, rr.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rr.Body.String(), `"backup_scheduled":true`)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&fakeBackupService{}, &fakeHistory{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
