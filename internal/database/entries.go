package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// InsertFile records a newly discovered file: the entry row, its metadata
// rows, and a pending progress row, all in a single transaction. The entry
// and progress inserts are idempotent; metadata rows are replaced.
func (d *DB) InsertFile(entry Entry, metas []Metadata) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin insert: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO entries (uuid, name, hash, path, size) VALUES (?, ?, ?, ?, ?)",
		entry.UUID, entry.Name, entry.Hash, entry.Path, entry.Size,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	for _, meta := range metas {
		extraJSON, err := marshalExtra(meta.Extra)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO metadata
			 (uuid, kind, codec, format, sar, dar, resolution, framerate, extra)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			meta.UUID, string(meta.Kind), meta.Codec, meta.Format,
			meta.SAR, meta.DAR, meta.Resolution, meta.Framerate, extraJSON,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert metadata: %w", err)
		}
	}

	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO progress
		 (uuid, status, progress, frame_current, frame_total, workfile)
		 VALUES (?, ?, 0.0, 0, 0, NULL)`,
		entry.UUID, string(StatusPending),
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert progress: %w", err)
	}

	return tx.Commit()
}

// GetEntryByUUID retrieves an entry by uuid. Returns (nil, nil) if not found.
func (d *DB) GetEntryByUUID(uuid string) (*Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return scanEntry(d.db.QueryRow(
		"SELECT uuid, name, hash, path, size FROM entries WHERE uuid = ?", uuid))
}

// GetEntryByHashAndPath retrieves an entry by its dedup key.
// Returns (nil, nil) if not found.
func (d *DB) GetEntryByHashAndPath(hash, path string) (*Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return scanEntry(d.db.QueryRow(
		"SELECT uuid, name, hash, path, size FROM entries WHERE hash = ? AND path = ?",
		hash, path))
}

// ListEntries returns every entry in insertion order.
func (d *DB) ListEntries() ([]Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query("SELECT uuid, name, hash, path, size FROM entries ORDER BY rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UUID, &e.Name, &e.Hash, &e.Path, &e.Size); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.UUID, &e.Name, &e.Hash, &e.Path, &e.Size)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &e, nil
}

func marshalExtra(extra map[string]interface{}) (string, error) {
	if extra == nil {
		return "{}", nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return "", fmt.Errorf("failed to marshal extra: %w", err)
	}
	return string(b), nil
}
