package database

import (
	"fmt"
)

// CountByStatus returns the number of progress rows per status.
func (d *DB) CountByStatus() (map[Status]int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query("SELECT status, COUNT(*) FROM progress GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[Status(status)] = count
	}

	return counts, rows.Err()
}

// HasActiveQueue reports whether any row is queued or in_progress.
func (d *DB) HasActiveQueue() (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var count int
	err := d.db.QueryRow(
		"SELECT COUNT(*) FROM progress WHERE status IN (?, ?)",
		string(StatusQueued), string(StatusInProgress)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check active queue: %w", err)
	}
	return count > 0, nil
}

// QueryBestCandidate returns the largest pending entry, ties broken by
// insertion order. Returns (nil, nil) if nothing is pending.
func (d *DB) QueryBestCandidate() (*Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return scanEntry(d.db.QueryRow(
		`SELECT e.uuid, e.name, e.hash, e.path, e.size
		 FROM entries e JOIN progress p ON e.uuid = p.uuid
		 WHERE p.status = ?
		 ORDER BY e.size DESC, e.rowid ASC
		 LIMIT 1`,
		string(StatusPending)))
}

// PickNextQueued returns the oldest-inserted queued entry.
// Returns (nil, nil) if nothing is queued.
func (d *DB) PickNextQueued() (*Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return scanEntry(d.db.QueryRow(
		`SELECT e.uuid, e.name, e.hash, e.path, e.size
		 FROM entries e JOIN progress p ON e.uuid = p.uuid
		 WHERE p.status = ?
		 ORDER BY e.rowid ASC
		 LIMIT 1`,
		string(StatusQueued)))
}
