// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

// Package config loads Tillfold server configuration with Koanf v2 using
// layered sources (highest priority wins):
//
//  1. Built-in defaults
//  2. Config file (config.yaml)
//  3. Environment variables
//
// Environment variables map onto nested keys, e.g. HTTP_PORT -> server.port,
// BACKUP_DIR -> backup.dir.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tillfold/tillfold/internal/backup"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tillfold/config.yaml",
	"/etc/tillfold/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Config is the root server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Backup   BackupConfig   `koanf:"backup"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig identifies the POS database, which is also the backup
// target.
type DatabaseConfig struct {
	// Path is the SQLite database file.
	Path string `koanf:"path"`

	// Name is the logical name of the backup target; artifact filenames
	// start with it. Empty disables backups with a configuration error.
	Name string `koanf:"name"`
}

// BackupConfig holds the backup subsystem's knobs.
type BackupConfig struct {
	// Dir is where artifacts are written.
	Dir string `koanf:"dir"`

	// EngineTimeout bounds one backup engine call.
	EngineTimeout time.Duration `koanf:"engine_timeout"`

	// DisabledPollInterval is the scheduler's re-check interval while the
	// schedule is disabled.
	DisabledPollInterval time.Duration `koanf:"disabled_poll_interval"`

	// ErrorRetryInterval is the scheduler's backoff after a failed run.
	ErrorRetryInterval time.Duration `koanf:"error_retry_interval"`

	// RetentionKeep is how many successful automatic backups are retained.
	RetentionKeep int `koanf:"retention_keep"`

	// DefaultTime seeds the schedule when none is persisted ("HH:mm:ss").
	DefaultTime string `koanf:"default_time"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaultConfig returns the built-in defaults, applied before file and env.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8970,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path: "/data/tillfold.db",
			Name: "tillfold",
		},
		Backup: BackupConfig{
			Dir:                  "/data/backups",
			EngineTimeout:        time.Hour,
			DisabledPollInterval: time.Hour,
			ErrorRetryInterval:   time.Hour,
			RetentionKeep:        30,
			DefaultTime:          "13:00:00",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional config file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, honoring
// CONFIG_PATH.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		return ""
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to nested config paths.
func envTransformFunc(key string) string {
	mappings := map[string]string{
		"http_host":         "server.host",
		"http_port":         "server.port",
		"http_timeout":      "server.timeout",
		"rate_limit_reqs":   "server.rate_limit_reqs",
		"rate_limit_window": "server.rate_limit_window",
		"cors_origins":      "server.cors_origins",

		"database_path": "database.path",
		"database_name": "database.name",

		"backup_dir":                    "backup.dir",
		"backup_engine_timeout":         "backup.engine_timeout",
		"backup_disabled_poll_interval": "backup.disabled_poll_interval",
		"backup_error_retry_interval":   "backup.error_retry_interval",
		"backup_retention_keep":         "backup.retention_keep",
		"backup_default_time":           "backup.default_time",

		"log_level":  "log.level",
		"log_format": "log.format",
	}

	if path, ok := mappings[strings.ToLower(key)]; ok {
		return path
	}
	// Unknown variables are dropped rather than polluting the tree.
	return ""
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Backup.Dir == "" {
		return fmt.Errorf("backup.dir is required")
	}
	if !filepath.IsAbs(c.Backup.Dir) {
		return fmt.Errorf("backup.dir must be an absolute path, got %s", c.Backup.Dir)
	}
	if c.Backup.EngineTimeout < time.Minute {
		return fmt.Errorf("backup.engine_timeout must be at least 1 minute, got %s", c.Backup.EngineTimeout)
	}
	if c.Backup.DisabledPollInterval < time.Minute {
		return fmt.Errorf("backup.disabled_poll_interval must be at least 1 minute, got %s", c.Backup.DisabledPollInterval)
	}
	if c.Backup.RetentionKeep < 1 {
		return fmt.Errorf("backup.retention_keep must be at least 1, got %d", c.Backup.RetentionKeep)
	}
	if _, err := backup.ParseTimeOfDay(c.Backup.DefaultTime); err != nil {
		return fmt.Errorf("backup.default_time: %w", err)
	}

	return nil
}

// DefaultScheduleTime returns the configured default trigger point.
// Validate has already checked the format.
func (c *Config) DefaultScheduleTime() backup.TimeOfDay {
	tod, _ := backup.ParseTimeOfDay(c.Backup.DefaultTime)
	return tod
}
