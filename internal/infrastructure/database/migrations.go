package database

import (
	"context"
	"fmt"
	"time"
)

// Migration is a single schema change. The journal schema is small enough
// that migrations live as in-code statements rather than embedded files.
type Migration struct {
	// Version orders migrations and keys the schema_migrations table.
	// Format: YYYYMMDD_HHMMSS.
	Version string

	// Name is a human-readable description.
	Name string

	// SQL is the statement (or statements) applying the migration.
	SQL string
}

// migrations are applied in slice order (oldest first). Append only;
// never edit an applied migration.
var migrations = []Migration{
	{
		Version: "20260301_120000",
		Name:    "submission_journal",
		SQL: `
			CREATE TABLE IF NOT EXISTS submission_entries (
				id            TEXT PRIMARY KEY,
				submission_id TEXT NOT NULL,
				meter_id      TEXT NOT NULL,
				room          TEXT NOT NULL,
				outcome       TEXT NOT NULL,
				stored_value  REAL,
				error         TEXT,
				created_at    TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_submission_entries_submission
				ON submission_entries (submission_id);
			CREATE INDEX IF NOT EXISTS idx_submission_entries_meter
				ON submission_entries (meter_id, created_at);
		`,
	},
}

// Migrate applies all pending migrations in version order.
//
// Each migration runs in its own transaction: if migration N fails,
// migrations 1..N-1 stay committed, N is rolled back, and N+1 onwards are
// not attempted. Re-running Migrate after fixing the issue continues
// from N.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("getting applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("applying migration %s (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// createMigrationsTable creates the schema_migrations table if needed.
func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

// appliedVersions returns the set of already-applied migration versions.
func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migrations: %w", err)
	}

	return applied, nil
}

// applyMigration applies a single migration within a transaction.
func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		m.Version,
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	return nil
}
