package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// Canonical table definitions. The observed schema is compared against these
// (whitespace-normalised) on startup; any drift drops and recreates all three
// tables. The library on disk is the durable truth, so the state database is
// cheap to rebuild and carries no migration machinery.
var expectedTables = map[string]string{
	"entries": `CREATE TABLE entries (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hash TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL
	)`,
	"metadata": `CREATE TABLE metadata (
		uuid TEXT NOT NULL REFERENCES entries(uuid),
		kind TEXT NOT NULL,
		codec TEXT NOT NULL DEFAULT 'Unknown',
		format TEXT NOT NULL DEFAULT 'Unknown',
		sar TEXT NOT NULL DEFAULT 'Unknown',
		dar TEXT NOT NULL DEFAULT 'Unknown',
		resolution TEXT NOT NULL DEFAULT 'Unknown',
		framerate REAL NOT NULL DEFAULT 0.0,
		extra TEXT NOT NULL DEFAULT '{}',
		PRIMARY KEY (uuid, kind)
	)`,
	"progress": `CREATE TABLE progress (
		uuid TEXT PRIMARY KEY REFERENCES entries(uuid),
		status TEXT NOT NULL DEFAULT 'pending',
		progress REAL NOT NULL DEFAULT 0.0,
		frame_current INTEGER NOT NULL DEFAULT 0,
		frame_total INTEGER NOT NULL DEFAULT 0,
		workfile TEXT
	)`,
}

var schemaIndexes = []string{
	`CREATE INDEX idx_entries_hash ON entries(hash)`,
	`CREATE INDEX idx_entries_path ON entries(path)`,
	`CREATE INDEX idx_entries_size_desc ON entries(size DESC)`,
	`CREATE INDEX idx_progress_status ON progress(status)`,
}

// normalizeSQL collapses all whitespace runs so formatting differences don't
// count as schema drift.
func normalizeSQL(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ValidateSchema compares the observed table definitions against the expected
// ones. If every table matches it returns true. On any mismatch or missing
// table it drops all three tables, recreates them from scratch, and returns
// false.
func (d *DB) ValidateSchema() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.db.Query(
		"SELECT name, sql FROM sqlite_master WHERE type='table' AND name IN (?, ?, ?)",
		"entries", "metadata", "progress",
	)
	if err != nil {
		return false, fmt.Errorf("failed to read schema: %w", err)
	}

	existing := make(map[string]string)
	for rows.Next() {
		var name string
		var tableSQL sql.NullString
		if err := rows.Scan(&name, &tableSQL); err != nil {
			rows.Close()
			return false, fmt.Errorf("failed to scan schema row: %w", err)
		}
		existing[name] = normalizeSQL(tableSQL.String)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to read schema: %w", err)
	}

	match := len(existing) == len(expectedTables)
	if match {
		for name, expected := range expectedTables {
			if existing[name] != normalizeSQL(expected) {
				match = false
				break
			}
		}
	}

	if match {
		return true, nil
	}

	return false, d.recreateSchema()
}

// recreateSchema drops all three tables and recreates them. Caller holds the
// write lock. Drop order respects the foreign keys into entries.
func (d *DB) recreateSchema() error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema rebuild: %w", err)
	}

	for _, stmt := range []string{
		"DROP TABLE IF EXISTS metadata",
		"DROP TABLE IF EXISTS progress",
		"DROP TABLE IF EXISTS entries",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}

	for _, createSQL := range []string{
		expectedTables["entries"],
		expectedTables["metadata"],
		expectedTables["progress"],
	} {
		if _, err := tx.Exec(createSQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, indexSQL := range schemaIndexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return tx.Commit()
}
