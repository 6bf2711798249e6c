// Tillfold - Retail Point of Sale Platform
// Copyright 2026 Tillfold Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tillfold/tillfold

package store

import (
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
)

// Engine snapshots the live SQLite database into a compressed artifact.
// Implements backup.Engine.
//
// VACUUM INTO produces a consistent full copy of the database without
// blocking readers, then the copy is gzip-compressed into destPath. The
// caller bounds the whole operation through ctx.
type Engine struct {
	db *sql.DB
}

// NewEngine creates an Engine over the shared connection.
func NewEngine(s *Store) *Engine {
	return &Engine{db: s.db}
}

// Backup writes a compressed full snapshot of the database to destPath.
func (e *Engine) Backup(ctx context.Context, destPath string) error {
	// VACUUM INTO refuses to overwrite; stage the raw snapshot next to the
	// final artifact and always clean it up.
	rawPath := destPath + ".raw"
	if err := os.Remove(rawPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear stale snapshot %s: %w", rawPath, err)
	}
	defer os.Remove(rawPath)

	if _, err := e.db.ExecContext(ctx, `VACUUM INTO ?`, rawPath); err != nil {
		return fmt.Errorf("vacuum into %s failed: %w", rawPath, err)
	}

	if err := compressFile(rawPath, destPath); err != nil {
		// Don't leave a truncated artifact behind
		os.Remove(destPath)
		return err
	}
	return nil
}

// compressFile gzips src into dest.
func compressFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		out.Close()
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return fmt.Errorf("failed to finish compression: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	return nil
}
