package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// ProgressUpdate describes a partial update to a progress row. Nil fields are
// left untouched. Workfile uses sql.NullString so it can be set to NULL.
type ProgressUpdate struct {
	Status       *Status
	Progress     *float64
	FrameCurrent *int64
	FrameTotal   *int64
	Workfile     *sql.NullString
}

// GetProgress retrieves the progress row for a uuid.
// Returns (nil, nil) if not found.
func (d *DB) GetProgress(uuid string) (*Progress, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var p Progress
	var status string
	var workfile sql.NullString
	err := d.db.QueryRow(
		`SELECT uuid, status, progress, frame_current, frame_total, workfile
		 FROM progress WHERE uuid = ?`, uuid).
		Scan(&p.UUID, &status, &p.Progress, &p.FrameCurrent, &p.FrameTotal, &workfile)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	p.Status = Status(status)
	if workfile.Valid {
		p.Workfile = &workfile.String
	}
	return &p, nil
}

// SetStatus updates only the status of a progress row.
func (d *DB) SetStatus(uuid string, status Status) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec("UPDATE progress SET status = ? WHERE uuid = ?", string(status), uuid)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

// UpdateProgress applies a partial update to a progress row.
func (d *DB) UpdateProgress(uuid string, upd ProgressUpdate) error {
	var clauses []string
	var args []interface{}

	if upd.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.Progress != nil {
		clauses = append(clauses, "progress = ?")
		args = append(args, *upd.Progress)
	}
	if upd.FrameCurrent != nil {
		clauses = append(clauses, "frame_current = ?")
		args = append(args, *upd.FrameCurrent)
	}
	if upd.FrameTotal != nil {
		clauses = append(clauses, "frame_total = ?")
		args = append(args, *upd.FrameTotal)
	}
	if upd.Workfile != nil {
		clauses = append(clauses, "workfile = ?")
		args = append(args, *upd.Workfile)
	}

	if len(clauses) == 0 {
		return nil
	}
	args = append(args, uuid)

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(
		"UPDATE progress SET "+strings.Join(clauses, ", ")+" WHERE uuid = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// ResetInProgress demotes every in_progress row back to pending with progress
// and workfile cleared. Used by the worker's startup hook to recover from a
// crash mid-encode. Returns the number of rows reset.
func (d *DB) ResetInProgress() (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.db.Exec(
		`UPDATE progress SET status = ?, progress = 0.0, workfile = NULL
		 WHERE status = ?`,
		string(StatusPending), string(StatusInProgress))
	if err != nil {
		return 0, fmt.Errorf("failed to reset in-progress rows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
