// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tillfold/tillfold/internal/backup"
	"github.com/tillfold/tillfold/internal/logging"
)

// SchedulerService adapts the backup scheduler to a suture.Service.
type SchedulerService struct {
	scheduler *backup.Scheduler
}

// NewSchedulerService wraps a scheduler for supervision.
func NewSchedulerService(s *backup.Scheduler) *SchedulerService {
	return &SchedulerService{scheduler: s}
}

// Serve runs the scheduler loop until ctx is cancelled.
func (s *SchedulerService) Serve(ctx context.Context) error {
	return s.scheduler.Run(ctx)
}

func (s *SchedulerService) String() string { return "backup-scheduler" }

// HTTPService runs an http.Server under supervision, shutting it down
// gracefully when the supervisor's context is cancelled.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService wraps an http.Server for supervision.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve listens until ctx is cancelled, then drains in-flight requests.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("HTTP server shutdown was not clean")
	}
	<-errCh
	return ctx.Err()
}

func (s *HTTPService) String() string { return "http-server" }
