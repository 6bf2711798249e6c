// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tillfold/tillfold/internal/backup"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8970 {
		t.Errorf("port = %d, want 8970", cfg.Server.Port)
	}
	if cfg.Backup.EngineTimeout != time.Hour {
		t.Errorf("engine timeout = %s, want 1h", cfg.Backup.EngineTimeout)
	}
	if cfg.Backup.RetentionKeep != 30 {
		t.Errorf("retention keep = %d, want 30", cfg.Backup.RetentionKeep)
	}
	if cfg.Backup.DefaultTime != "13:00:00" {
		t.Errorf("default time = %s, want 13:00:00", cfg.Backup.DefaultTime)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %s, want json", cfg.Log.Format)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9001")
	t.Setenv("DATABASE_NAME", "storefront")
	t.Setenv("BACKUP_RETENTION_KEEP", "7")
	t.Setenv("BACKUP_DEFAULT_TIME", "02:30:00")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Database.Name != "storefront" {
		t.Errorf("database name = %s, want storefront", cfg.Database.Name)
	}
	if cfg.Backup.RetentionKeep != 7 {
		t.Errorf("retention keep = %d, want 7", cfg.Backup.RetentionKeep)
	}
	if got := cfg.DefaultScheduleTime(); got != (backup.TimeOfDay{Hour: 2, Minute: 30}) {
		t.Errorf("default schedule time = %v", got)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8080
backup:
  dir: /var/backups/tillfold
  retention_keep: 14
`
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Backup.Dir != "/var/backups/tillfold" {
		t.Errorf("backup dir = %s", cfg.Backup.Dir)
	}
	if cfg.Backup.RetentionKeep != 14 {
		t.Errorf("retention keep = %d, want 14", cfg.Backup.RetentionKeep)
	}
	// Untouched keys keep their defaults.
	if cfg.Database.Name != "tillfold" {
		t.Errorf("database name = %s, want default", cfg.Database.Name)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o640); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9002")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9002 {
		t.Errorf("port = %d, env must beat file", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, true},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, true},
		{"empty backup dir", func(c *Config) { c.Backup.Dir = "" }, true},
		{"relative backup dir", func(c *Config) { c.Backup.Dir = "backups" }, true},
		{"engine timeout too short", func(c *Config) { c.Backup.EngineTimeout = time.Second }, true},
		{"poll interval too short", func(c *Config) { c.Backup.DisabledPollInterval = time.Second }, true},
		{"retention zero", func(c *Config) { c.Backup.RetentionKeep = 0 }, true},
		{"bad default time", func(c *Config) { c.Backup.DefaultTime = "1pm" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"BACKUP_DIR", "backup.dir"},
		{"BACKUP_ENGINE_TIMEOUT", "backup.engine_timeout"},
		{"LOG_LEVEL", "log.level"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
