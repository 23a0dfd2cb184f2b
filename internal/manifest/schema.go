package manifest

import (
	"database/sql"
	"errors"
	"fmt"
)

// SchemaVersion is bumped whenever the tables below change shape.
const SchemaVersion = "1"

const createRoundsTable = `
CREATE TABLE IF NOT EXISTS rounds (
    round_id     TEXT PRIMARY KEY,
    session_seq  INTEGER NOT NULL,
    started_at   TEXT NOT NULL,
    finished_at  TEXT NOT NULL,
    files        INTEGER NOT NULL DEFAULT 0,
    annotations  INTEGER NOT NULL DEFAULT 0,
    elements     INTEGER NOT NULL DEFAULT 0,
    misses       INTEGER NOT NULL DEFAULT 0,
    failures     INTEGER NOT NULL DEFAULT 0
)`

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS records (
    record_id    INTEGER PRIMARY KEY AUTOINCREMENT,
    round_id     TEXT NOT NULL REFERENCES rounds(round_id) ON DELETE CASCADE,
    annotation   TEXT NOT NULL,
    element_id   TEXT NOT NULL,
    kind         TEXT NOT NULL,
    file_path    TEXT NOT NULL,
    line         INTEGER NOT NULL DEFAULT 0,
    source_hash  TEXT NOT NULL,
    source_len   INTEGER NOT NULL DEFAULT 0
)`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS manifest_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_records_round ON records(round_id)",
	"CREATE INDEX IF NOT EXISTS idx_records_annotation ON records(annotation)",
	"CREATE INDEX IF NOT EXISTS idx_records_file ON records(file_path)",
	"CREATE INDEX IF NOT EXISTS idx_rounds_started ON rounds(started_at)",
}

// CreateSchema creates the manifest tables and indexes in one transaction.
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"rounds", createRoundsTable},
		{"records", createRecordsTable},
		{"manifest_metadata", createMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO manifest_metadata (key, value) VALUES ('schema_version', ?)",
		SchemaVersion,
	); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the stored schema version, or "0" for a database
// without the manifest tables.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='manifest_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check manifest_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil // New database
	}

	var version string
	err = db.QueryRow("SELECT value FROM manifest_metadata WHERE key = 'schema_version'").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("schema_version key not found in manifest_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}
