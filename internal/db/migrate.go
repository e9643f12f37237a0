package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// migrations are applied in order; index+1 is the schema version.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS mood_cycles (
		id                  UUID PRIMARY KEY,
		trigger             TEXT NOT NULL,
		started_at          TIMESTAMPTZ NOT NULL,
		finished_at         TIMESTAMPTZ NOT NULL,
		quiet               BOOLEAN NOT NULL DEFAULT FALSE,
		mood                TEXT NOT NULL,
		mood_reason         TEXT NOT NULL DEFAULT '',
		search_query        TEXT NOT NULL DEFAULT '',
		search_query_reason TEXT NOT NULL DEFAULT '',
		playlist_name       TEXT,
		playlist_uri        TEXT,
		error               TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mood_cycles_started_at ON mood_cycles (started_at DESC)`,
	`ALTER TABLE mood_cycles ADD COLUMN IF NOT EXISTS signals JSONB NOT NULL DEFAULT '[]'::jsonb`,
}

// SchemaVersion is the latest schema version.
var SchemaVersion = len(migrations)

// Migrate creates or upgrades the schema to SchemaVersion. Each pending
// migration runs in its own transaction together with its version row.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}

	for version := current + 1; version <= SchemaVersion; version++ {
		err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, migrations[version-1]); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migrate: apply version %d: %w", version, err)
		}
	}
	return nil
}
