package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the SQLite store.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS sweeps (
    id TEXT PRIMARY KEY,
    runs INTEGER NOT NULL,
    design TEXT NOT NULL,  -- JSON
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL
);

-- One row per simulation run. sweep_id is empty for single runs.
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    sweep_id TEXT NOT NULL DEFAULT '',
    replication_id INTEGER NOT NULL,
    label TEXT NOT NULL DEFAULT '',

    -- Parameters
    num_citizens INTEGER NOT NULL,
    num_brokers INTEGER NOT NULL,
    initial_trust REAL NOT NULL,
    spillover_enabled INTEGER NOT NULL,
    spillover_fraction REAL NOT NULL,
    spillover_mode TEXT NOT NULL,
    steps INTEGER NOT NULL,
    seed INTEGER NOT NULL,

    -- Outcomes
    final_trust REAL NOT NULL,
    participation_rate REAL NOT NULL,
    final_cooperation REAL NOT NULL,
    collapsed INTEGER NOT NULL,
    collapse_step INTEGER NOT NULL,

    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_sweep ON runs(sweep_id);
CREATE INDEX IF NOT EXISTS idx_runs_label ON runs(label, initial_trust);

-- Schema version
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema initializes the database schema.
// It creates all tables and applies migrations as needed.
// Runs integrity validation before migrations on existing databases.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	currentVersion, err := getSchemaVersion(ctx, db)
	if err != nil {
		// Schema version table doesn't exist yet, create fresh schema
		if err := createSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}

	if err := ValidateIntegrity(ctx, db); err != nil {
		return fmt.Errorf("database integrity check failed: %w", err)
	}

	if currentVersion > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, SchemaVersion)
	}
	if currentVersion < SchemaVersion {
		if err := migrateSchema(ctx, db, currentVersion); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	return nil
}

// getSchemaVersion returns the current schema version from the database.
// Returns 0 and an error if the schema_version table doesn't exist.
func getSchemaVersion(ctx context.Context, db *sqlx.DB) (int, error) {
	var version int
	if err := db.GetContext(ctx, &version, `SELECT MAX(version) FROM schema_version`); err != nil {
		return 0, err
	}
	return version, nil
}

// createSchema creates the initial database schema.
func createSchema(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return tx.Commit()
}

// migrateSchema applies migrations from currentVersion to SchemaVersion.
// Version 1 is the only schema so far, so there is nothing to apply yet.
func migrateSchema(ctx context.Context, db *sqlx.DB, currentVersion int) error {
	if currentVersion < 1 {
		return fmt.Errorf("unknown schema version %d", currentVersion)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// ValidateIntegrity runs PRAGMA integrity_check on the database.
func ValidateIntegrity(ctx context.Context, db *sqlx.DB) error {
	var results []string
	if err := db.SelectContext(ctx, &results, `PRAGMA integrity_check`); err != nil {
		return fmt.Errorf("failed to run integrity_check: %w", err)
	}
	for _, result := range results {
		if result != "ok" {
			return fmt.Errorf("integrity_check failed: %s", result)
		}
	}
	return nil
}

// ResetSchema drops all tables and recreates the schema.
// Only use for testing.
func ResetSchema(ctx context.Context, db *sqlx.DB) error {
	for _, table := range []string{"runs", "sweeps", "schema_version"} {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return InitSchema(ctx, db)
}
