// Package sqlitemigrate applies embedded SQL migration files to a sqlite
// database, tracking applied versions in a schema_migrations table. It
// hand-rolls the same embed-migrations-plus-version-table algorithm tarsy
// used golang-migrate for (pkg/database/client.go's runMigrations)
// because golang-migrate's bundled sqlite3 driver requires the cgo
// mattn/go-sqlite3 driver, incompatible with the pure-Go modernc.org/sqlite
// this module uses — see DESIGN.md. Shared by pkg/episodic and pkg/semantic
// so the algorithm lives in one place instead of being copied per store.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

// Apply runs every "*.up.sql" file under dir in migrationsFS, in
// lexicographic order, that hasn't already been recorded in
// schema_migrations. component is used only for logging (e.g. "episodic",
// "semantic") so applied-migration log lines are distinguishable.
func Apply(ctx context.Context, db *sql.DB, migrationsFS fs.FS, dir string, component string) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("reading embedded migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		version := component + ":" + strings.TrimSuffix(name, ".up.sql")

		var exists int
		row := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, version)
		if err := row.Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %s: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		contents, err := fs.ReadFile(migrationsFS, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration tx %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", version, err)
		}
		slog.Info("applied migration", "component", component, "version", version)
	}

	return nil
}
