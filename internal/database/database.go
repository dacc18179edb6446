// Package database is the persistence layer for transcodarr. Three tables
// (entries, metadata, progress) joined on a shared uuid form the durable
// truth for every known file. The DB handle serialises all writes behind a
// mutex; readers share the same connection pool.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// DB is the handle for the transcodarr state database.
type DB struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens or creates the database at a specific path. The schema is not
// validated here; call ValidateSchema after opening.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode for concurrent readers alongside the single writer. The
	// pragmas ride the DSN so every pooled connection gets them.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		db:   db,
		path: path,
	}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the filesystem path to the database file
func (d *DB) Path() string {
	return d.path
}

// DB returns the underlying sql.DB for advanced operations
func (d *DB) DB() *sql.DB {
	return d.db
}
