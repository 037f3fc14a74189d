// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// InconsistencyMarker records a cross-store drift left by a partial
// delete. The resource delete services write these; the reconcile
// sweep does not read or resolve them (it finds orphans by scanning the
// document store and the bucket).
type InconsistencyMarker struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Kind       string    `json:"kind"` // the writing service: document_delete or source_delete
	EntityID   string    `json:"entity_id"`
	Details    string    `json:"details"`
	ResolvedAt sql.NullTime `json:"resolved_at"`
}

// InconsistencyLogStore manages the inconsistency_log table.
type InconsistencyLogStore struct {
	db *sql.DB
}

// NewInconsistencyLogStore creates a new inconsistency log store.
func NewInconsistencyLogStore(db *sql.DB) (*InconsistencyLogStore, error) {
	store := &InconsistencyLogStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize inconsistency_log schema: %w", err)
	}
	return store, nil
}

func (s *InconsistencyLogStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS inconsistency_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		kind TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		details TEXT,
		resolved_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_inconsistency_log_timestamp ON inconsistency_log(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_inconsistency_log_entity_id ON inconsistency_log(entity_id);
	CREATE INDEX IF NOT EXISTS idx_inconsistency_log_unresolved ON inconsistency_log(resolved_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Mark records a new inconsistency.
func (s *InconsistencyLogStore) Mark(kind, entityID, details string) error {
	_, err := s.db.Exec(
		"INSERT INTO inconsistency_log (kind, entity_id, details) VALUES (?, ?, ?)",
		kind, entityID, details,
	)
	return err
}

// Unresolved returns up to limit markers not yet cleared by Resolve, newest first.
func (s *InconsistencyLogStore) Unresolved(limit int) ([]InconsistencyMarker, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, timestamp, kind, entity_id, details, resolved_at FROM inconsistency_log
		 WHERE resolved_at IS NULL ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InconsistencyMarker
	for rows.Next() {
		var m InconsistencyMarker
		if err := rows.Scan(&m.ID, &m.Timestamp, &m.Kind, &m.EntityID, &m.Details, &m.ResolvedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Resolve marks a marker as resolved by stamping its resolved_at.
func (s *InconsistencyLogStore) Resolve(id int64) error {
	_, err := s.db.Exec(`UPDATE inconsistency_log SET resolved_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}
