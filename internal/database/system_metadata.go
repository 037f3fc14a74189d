// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SystemMetadataStore holds small pieces of singleton operational
// state that don't belong to any one notebook/document/source row —
// currently just the reconciler's last-run bookkeeping.
type SystemMetadataStore struct {
	db *sql.DB
}

// NewSystemMetadataStore creates a new system metadata store.
func NewSystemMetadataStore(db *sql.DB) (*SystemMetadataStore, error) {
	store := &SystemMetadataStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize system_metadata schema: %w", err)
	}
	return store, nil
}

func (s *SystemMetadataStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS system_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_system_metadata_key ON system_metadata(key);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get retrieves a metadata value by key, returning "" if unset.
func (s *SystemMetadataStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM system_metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}
	return value, nil
}

// Set sets a metadata value by key.
func (s *SystemMetadataStore) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO system_metadata (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

const lastReconcileKey = "last_reconcile_at"

// GetLastReconcileAt returns the time of the last completed
// reconciliation sweep, or the zero time if none has run yet.
func (s *SystemMetadataStore) GetLastReconcileAt() (time.Time, error) {
	v, err := s.Get(lastReconcileKey)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

// SetLastReconcileAt records when a reconciliation sweep finished.
func (s *SystemMetadataStore) SetLastReconcileAt(t time.Time) error {
	return s.Set(lastReconcileKey, t.Format(time.RFC3339))
}
