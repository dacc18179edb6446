package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// UpsertMetadata inserts or replaces a single metadata row. The actual kind
// is rewritten whenever the file is re-probed; the declared kind normally
// isn't.
func (d *DB) UpsertMetadata(meta Metadata) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	extraJSON, err := marshalExtra(meta.Extra)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(
		`INSERT OR REPLACE INTO metadata
		 (uuid, kind, codec, format, sar, dar, resolution, framerate, extra)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.UUID, string(meta.Kind), meta.Codec, meta.Format,
		meta.SAR, meta.DAR, meta.Resolution, meta.Framerate, extraJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert metadata: %w", err)
	}
	return nil
}

// GetMetadata retrieves the metadata row for (uuid, kind).
// Returns (nil, nil) if not found.
func (d *DB) GetMetadata(uuid string, kind MetadataKind) (*Metadata, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row := d.db.QueryRow(
		`SELECT uuid, kind, codec, format, sar, dar, resolution, framerate, extra
		 FROM metadata WHERE uuid = ? AND kind = ?`,
		uuid, string(kind))

	meta, err := scanMetadata(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	return meta, nil
}

// GetAllMetadata retrieves every metadata row for a uuid.
func (d *DB) GetAllMetadata(uuid string) ([]Metadata, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(
		`SELECT uuid, kind, codec, format, sar, dar, resolution, framerate, extra
		 FROM metadata WHERE uuid = ? ORDER BY kind ASC`,
		uuid)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	var metas []Metadata
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		metas = append(metas, *meta)
	}

	return metas, rows.Err()
}

func scanMetadata(row rowScanner) (*Metadata, error) {
	var meta Metadata
	var kind, extraJSON string
	err := row.Scan(&meta.UUID, &kind, &meta.Codec, &meta.Format,
		&meta.SAR, &meta.DAR, &meta.Resolution, &meta.Framerate, &extraJSON)
	if err != nil {
		return nil, err
	}
	meta.Kind = MetadataKind(kind)

	meta.Extra = map[string]interface{}{}
	if extraJSON != "" {
		if err := json.Unmarshal([]byte(extraJSON), &meta.Extra); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extra: %w", err)
		}
	}
	return &meta, nil
}
