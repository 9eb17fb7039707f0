package db

import (
	"database/sql"
	"fmt"
)

// Base schema - uses Snowflake IDs (no AUTOINCREMENT)
const baseSchema = `
CREATE TABLE IF NOT EXISTS fragments (
  id INTEGER PRIMARY KEY,
  key TEXT NOT NULL UNIQUE,
  url TEXT NOT NULL,
  etag TEXT,
  last_modified TEXT,
  body TEXT NOT NULL,
  fetched_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fragments_url ON fragments(url);
`

func Migrate(db *sql.DB) error {
	// Run base schema first
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	// Run incremental migrations
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: add fetch_count to fragments if not exists
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('fragments') WHERE name = 'fetch_count'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check fetch_count column: %w", err)
	}

	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE fragments ADD COLUMN fetch_count INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("add fetch_count column: %w", err)
		}
	}

	return nil
}
