// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SourceType enumerates the kinds of citable items a notebook can hold.
type SourceType string

const (
	SourceDocument SourceType = "document"
	SourceURL      SourceType = "url"
	SourceVideo    SourceType = "video"
	SourceImage    SourceType = "image"
	SourceText     SourceType = "text"
)

// SourceStatus mirrors Document's lifecycle.
type SourceStatus string

const (
	SourcePending    SourceStatus = "pending"
	SourceProcessing SourceStatus = "processing"
	SourceIndexed    SourceStatus = "indexed"
	SourceFailed     SourceStatus = "failed"
)

// Source is a logical citable item: a document, a URL, or raw text.
type Source struct {
	ID             string
	OwnerID        string
	Title          string
	Description    string
	SourceType     SourceType
	SourceMetadata string // JSON, shape depends on SourceType
	Status         SourceStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SourceStore manages the sources table.
type SourceStore struct {
	db *sql.DB
}

// NewSourceStore creates a new source store.
func NewSourceStore(db *sql.DB) (*SourceStore, error) {
	store := &SourceStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize sources schema: %w", err)
	}
	return store, nil
}

func (s *SourceStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		source_type TEXT NOT NULL,
		source_metadata TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sources_owner_id ON sources(owner_id);
	CREATE INDEX IF NOT EXISTS idx_sources_status ON sources(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert creates a source row.
func (s *SourceStore) Insert(src *Source) error {
	_, err := s.db.Exec(
		`INSERT INTO sources (id, owner_id, title, description, source_type, source_metadata, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.OwnerID, src.Title, src.Description, src.SourceType, src.SourceMetadata, src.Status,
	)
	return err
}

// GetByID returns the source if owned by ownerID.
func (s *SourceStore) GetByID(id, ownerID string) (*Source, error) {
	row := s.db.QueryRow(
		`SELECT id, owner_id, title, description, source_type, source_metadata, status, created_at, updated_at
		 FROM sources WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanSource(row)
}

// List returns every source owned by ownerID.
func (s *SourceStore) List(ownerID string) ([]Source, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, title, description, source_type, source_metadata, status, created_at, updated_at
		 FROM sources WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		src, err := scanSourceRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *src)
	}
	return out, rows.Err()
}

// UpdateStatus advances a source's lifecycle status.
func (s *SourceStore) UpdateStatus(id string, status SourceStatus) error {
	_, err := s.db.Exec(`UPDATE sources SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

// Delete removes the row. Returns sql.ErrNoRows if not found/owned.
func (s *SourceStore) Delete(id, ownerID string) error {
	res, err := s.db.Exec(`DELETE FROM sources WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanSource(row *sql.Row) (*Source, error) {
	return scanSourceRow(row)
}

func scanSourceRows(rows *sql.Rows) (*Source, error) {
	return scanSourceRow(rows)
}

func scanSourceRow(s scannable) (*Source, error) {
	var src Source
	err := s.Scan(&src.ID, &src.OwnerID, &src.Title, &src.Description, &src.SourceType,
		&src.SourceMetadata, &src.Status, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &src, nil
}
