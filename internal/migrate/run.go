// Package migrate applies the embedded SQL migrations that define the
// summaries schema. Applied versions are recorded in schema_migrations so
// Run is safe to call on every startup.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/skimworks/skim-api/internal/data/pgxutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// AppliedMigration describes one row of schema_migrations.
type AppliedMigration struct {
	Version   string
	AppliedAt time.Time
}

// Run applies all pending migrations in version order. Each migration runs in
// its own transaction together with its schema_migrations record.
func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	versions, err := embeddedVersions()
	if err != nil {
		return err
	}

	logger := slog.Default().With("component", "migrations")
	for _, version := range versions {
		applied, checkErr := versionApplied(ctx, db, version)
		if checkErr != nil {
			return checkErr
		}
		if applied {
			continue
		}
		if applyErr := applyVersion(ctx, db, logger, version); applyErr != nil {
			return applyErr
		}
	}
	return nil
}

// Applied returns the recorded migrations in version order. Used by the admin
// CLI to report schema state.
func Applied(ctx context.Context, db *sql.DB) ([]AppliedMigration, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT version, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []AppliedMigration
	for rows.Next() {
		var m AppliedMigration
		if scanErr := rows.Scan(&m.Version, &m.AppliedAt); scanErr != nil {
			return nil, fmt.Errorf("scan migration row: %w", scanErr)
		}
		out = append(out, m)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate migration rows: %w", rowsErr)
	}
	return out, nil
}

// embeddedVersions lists migration versions (file names without .sql) sorted
// ascending. Version order is lexical, so files use zero-padded prefixes.
func embeddedVersions() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	var versions []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(e.Name(), ".sql"))
	}
	sort.Strings(versions)
	return versions, nil
}

func versionApplied(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`
	if err := db.QueryRowContext(ctx, query, version).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return exists, nil
}

func applyVersion(ctx context.Context, db *sql.DB, logger *slog.Logger, version string) error {
	sqlBytes, err := migrationsFS.ReadFile("migrations/" + version + ".sql")
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	logger.InfoContext(ctx, "applying migration", "version", version)

	// The migration and its schema_migrations record commit together or not at all.
	err = pgxutil.WithSQLTx(ctx, db, pgxutil.SQLTxConfig{Fn: func(tx *sql.Tx) error {
		if _, execErr := tx.ExecContext(ctx, string(sqlBytes)); execErr != nil {
			return fmt.Errorf("exec: %w", execErr)
		}
		if _, recordErr := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, version); recordErr != nil {
			return fmt.Errorf("record version: %w", recordErr)
		}
		return nil
	}})
	if err != nil {
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	return nil
}
