// Package store persists uploaded datasets, saved views and export
// history in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the sqlite file at dbPath and creates missing tables.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serializes writers; one connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle without touching the schema.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	datasetTable := `
	CREATE TABLE IF NOT EXISTS datasets (
		entity TEXT PRIMARY KEY,
		records TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	viewTable := `
	CREATE TABLE IF NOT EXISTS saved_views (
		id TEXT PRIMARY KEY,
		entity TEXT NOT NULL,
		name TEXT NOT NULL,
		state TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	exportTable := `
	CREATE TABLE IF NOT EXISTS export_history (
		id TEXT PRIMARY KEY,
		entity TEXT NOT NULL,
		format TEXT NOT NULL,
		file_name TEXT NOT NULL,
		location TEXT,
		record_count INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error_message TEXT,
		exported_at DATETIME NOT NULL
	);
	`

	for _, stmt := range []string{datasetTable, viewTable, exportTable} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}
