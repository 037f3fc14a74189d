// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// DocumentStatus mirrors the lifecycle the Indexing Worker drives.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentIndexed    DocumentStatus = "indexed"
	DocumentFailed     DocumentStatus = "failed"
)

// Document is an uploaded binary blob's metadata row.
type Document struct {
	ID         string
	OwnerID    string
	Filename   string
	MimeType   string
	Size       int64
	Bucket     string
	ObjectKey  string
	Metadata   string // JSON, includes file_hash
	Status     DocumentStatus
	Version    int
	SourceID   sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DocumentStore manages the documents table.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a new document store, following the same
// New*Store(db) (*Store, error) shape every other store in this
// package uses.
func NewDocumentStore(db *sql.DB) (*DocumentStore, error) {
	store := &DocumentStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize documents schema: %w", err)
	}
	return store, nil
}

func (s *DocumentStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		bucket TEXT NOT NULL,
		object_key TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'pending',
		version INTEGER NOT NULL DEFAULT 1,
		source_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_user_object_key ON documents(owner_id, object_key);
	CREATE INDEX IF NOT EXISTS idx_documents_owner_id ON documents(owner_id);
	CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert creates a pending document row inside tx. A duplicate
// (owner_id, object_key) fails on the uq_user_object_key index and the
// driver's error is returned as is; resource.UploadService checks for an
// existing key before inserting and reports any Insert error as a Conflict.
func (s *DocumentStore) Insert(tx *sql.Tx, d *Document) error {
	_, err := tx.Exec(
		`INSERT INTO documents (id, owner_id, filename, mime_type, size, bucket, object_key, metadata, status, version, source_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.OwnerID, d.Filename, d.MimeType, d.Size, d.Bucket, d.ObjectKey, d.Metadata, d.Status, d.Version, d.SourceID,
	)
	return err
}

// GetByID returns the document if owned by ownerID.
func (s *DocumentStore) GetByID(id, ownerID string) (*Document, error) {
	row := s.db.QueryRow(
		`SELECT id, owner_id, filename, mime_type, size, bucket, object_key, metadata, status, version, source_id, created_at, updated_at
		 FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanDocument(row)
}

// GetBySourceID returns the document backing a document-type source, if any.
func (s *DocumentStore) GetBySourceID(sourceID, ownerID string) (*Document, error) {
	row := s.db.QueryRow(
		`SELECT id, owner_id, filename, mime_type, size, bucket, object_key, metadata, status, version, source_id, created_at, updated_at
		 FROM documents WHERE source_id = ? AND owner_id = ?`, sourceID, ownerID)
	return scanDocument(row)
}

// GetByObjectKey checks the upload-idempotency invariant (owner_id, object_key).
func (s *DocumentStore) GetByObjectKey(ownerID, objectKey string) (*Document, error) {
	row := s.db.QueryRow(
		`SELECT id, owner_id, filename, mime_type, size, bucket, object_key, metadata, status, version, source_id, created_at, updated_at
		 FROM documents WHERE owner_id = ? AND object_key = ?`, ownerID, objectKey)
	return scanDocument(row)
}

// List returns documents for ownerID, newest first.
func (s *DocumentStore) List(ownerID string, skip, limit int) ([]Document, int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents WHERE owner_id = ?`, ownerID).Scan(&count); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(
		`SELECT id, owner_id, filename, mime_type, size, bucket, object_key, metadata, status, version, source_id, created_at, updated_at
		 FROM documents WHERE owner_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`, ownerID, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocumentRows(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *d)
	}
	return docs, count, rows.Err()
}

// CountProcessing implements the live-read half of the per-user
// concurrency gate: count of Document rows currently processing.
func (s *DocumentStore) CountProcessing(ownerID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM documents WHERE owner_id = ? AND status = ?`,
		ownerID, DocumentProcessing,
	).Scan(&count)
	return count, err
}

// UpdateStatus advances status for a single row, independent of
// vector/blob work, matching 4.E.5's single-row-write requirement.
func (s *DocumentStore) UpdateStatus(id string, status DocumentStatus) error {
	_, err := s.db.Exec(
		`UPDATE documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	return err
}

// Delete removes the row. Returns sql.ErrNoRows if not found/owned.
func (s *DocumentStore) Delete(id, ownerID string) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID)
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

// ListAll returns every document row regardless of owner, for the
// superuser reconciliation sweep.
func (s *DocumentStore) ListAll() ([]Document, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, filename, mime_type, size, bucket, object_key, metadata, status, version, source_id, created_at, updated_at
		 FROM documents ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// DeleteByID removes a document row regardless of owner, for the
// superuser reconciliation sweep.
func (s *DocumentStore) DeleteByID(id string) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
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

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row *sql.Row) (*Document, error) {
	return scanDocumentRow(row)
}

func scanDocumentRows(rows *sql.Rows) (*Document, error) {
	return scanDocumentRow(rows)
}

func scanDocumentRow(s scannable) (*Document, error) {
	var d Document
	err := s.Scan(&d.ID, &d.OwnerID, &d.Filename, &d.MimeType, &d.Size, &d.Bucket, &d.ObjectKey,
		&d.Metadata, &d.Status, &d.Version, &d.SourceID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
