package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_feedback_events_table",
		Up:      migrationV2,
	},
}

// InitSchema applies the base schema and any pending migrations.
func InitSchema(database *sql.DB) error {
	if _, err := database.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return runMigrations(database)
}

func runMigrations(database *sql.DB) error {
	var current int
	err := database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := m.Up(database); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := database.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// migrationV1 is a no-op for fresh installs: the base schema already contains
// everything. It exists so version 1 is recorded for databases created before
// migration tracking.
func migrationV1(database *sql.DB) error {
	return nil
}

// migrationV2 backfills the feedback_events table for databases created from
// the v1 schema. CREATE TABLE IF NOT EXISTS makes it safe on fresh installs.
func migrationV2(database *sql.DB) error {
	_, err := database.Exec(`
CREATE TABLE IF NOT EXISTS feedback_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	rule_id TEXT NOT NULL,
	test_id TEXT NOT NULL DEFAULT '',
	variant_id TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL CHECK(kind IN ('impression', 'conversion', 'engagement', 'approval')),
	value REAL NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`)
	return err
}
