// Package sqlite_test contains integration tests for SQLite repositories.
//
// All test setup goes through setupTestDB(), which loads the authoritative
// schema via db.GetSchemaSQL(). Do not hardcode CREATE TABLE statements in
// test files; schema drift then fails immediately with "no such column".
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/responder/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedChannel inserts a test channel and returns its ID.
func seedChannel(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	if id == "" {
		id = "CHAN-001"
	}
	_, err := db.Exec("INSERT INTO channels (id, name, platform) VALUES (?, ?, 'generic')", id, "Test Channel")
	if err != nil {
		t.Fatalf("failed to seed channel: %v", err)
	}
	return id
}

// seedRule inserts a minimal enabled respond rule and returns its ID.
func seedRule(t *testing.T, db *sql.DB, id, channelID string, priority int) string {
	t.Helper()
	if id == "" {
		id = "RULE-001"
	}
	if channelID == "" {
		channelID = "CHAN-001"
	}
	_, err := db.Exec(
		"INSERT INTO rules (id, channel_id, name, priority, action_type) VALUES (?, ?, ?, ?, 'respond')",
		id, channelID, "Test Rule", priority,
	)
	if err != nil {
		t.Fatalf("failed to seed rule: %v", err)
	}
	return id
}

// seedItem inserts a pending queue item and returns its rowid.
func seedItem(t *testing.T, db *sql.DB, channelID, externalID, body string, priority int) int64 {
	t.Helper()
	if channelID == "" {
		channelID = "CHAN-001"
	}
	result, err := db.Exec(
		"INSERT INTO queue_items (channel_id, external_id, body, priority) VALUES (?, ?, ?, ?)",
		channelID, externalID, body, priority,
	)
	if err != nil {
		t.Fatalf("failed to seed queue item: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read seeded item id: %v", err)
	}
	return id
}
