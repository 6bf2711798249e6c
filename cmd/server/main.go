// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

// Command server runs the Tillfold POS server: the SQLite-backed store, the
// automated backup scheduler, and the HTTP API, supervised as one tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tillfold/tillfold/internal/api"
	"github.com/tillfold/tillfold/internal/backup"
	"github.com/tillfold/tillfold/internal/config"
	"github.com/tillfold/tillfold/internal/logging"
	"github.com/tillfold/tillfold/internal/metrics"
	"github.com/tillfold/tillfold/internal/store"
	"github.com/tillfold/tillfold/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Str("database", cfg.Database.Path).
		Msg("Starting Tillfold server")

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	scheduleStore := store.NewScheduleStore(db, backup.ScheduleConfig{
		Time:    cfg.DefaultScheduleTime(),
		Enabled: true,
	})
	historyStore := store.NewHistoryStore(db)
	engine := store.NewEngine(db)

	m := metrics.New(prometheus.DefaultRegisterer)

	executor := backup.NewExecutor(backup.ExecutorConfig{
		DatabaseName:  cfg.Database.Name,
		Dir:           cfg.Backup.Dir,
		EngineTimeout: cfg.Backup.EngineTimeout,
		RetentionKeep: cfg.Backup.RetentionKeep,
	}, engine, historyStore, backup.SystemClock(), m)

	scheduler := backup.NewScheduler(backup.SchedulerConfig{
		DisabledPollInterval: cfg.Backup.DisabledPollInterval,
		ErrorRetryInterval:   cfg.Backup.ErrorRetryInterval,
	}, scheduleStore, executor, backup.SystemClock())

	handler := api.NewHandler(scheduler, historyStore)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.Add(supervisor.NewSchedulerService(scheduler))
	tree.Add(supervisor.NewHTTPService(httpServer, treeCfg.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("Server stopped")
	return nil
}
