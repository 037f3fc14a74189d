// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Notebook is a user-owned workspace binding sources and a message history.
type Notebook struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NotebookStore manages the notebooks table.
type NotebookStore struct {
	db *sql.DB
}

// NewNotebookStore creates a new notebook store.
func NewNotebookStore(db *sql.DB) (*NotebookStore, error) {
	store := &NotebookStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize notebooks schema: %w", err)
	}
	return store, nil
}

func (s *NotebookStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS notebooks (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_notebooks_owner_id ON notebooks(owner_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert creates a notebook row.
func (s *NotebookStore) Insert(nb *Notebook) error {
	_, err := s.db.Exec(
		`INSERT INTO notebooks (id, owner_id, title, description) VALUES (?, ?, ?, ?)`,
		nb.ID, nb.OwnerID, nb.Title, nb.Description,
	)
	return err
}

// GetByID returns the notebook if owned by ownerID.
func (s *NotebookStore) GetByID(id, ownerID string) (*Notebook, error) {
	row := s.db.QueryRow(
		`SELECT id, owner_id, title, description, created_at, updated_at FROM notebooks WHERE id = ? AND owner_id = ?`,
		id, ownerID)
	var nb Notebook
	if err := row.Scan(&nb.ID, &nb.OwnerID, &nb.Title, &nb.Description, &nb.CreatedAt, &nb.UpdatedAt); err != nil {
		return nil, err
	}
	return &nb, nil
}

// List returns every notebook owned by ownerID.
func (s *NotebookStore) List(ownerID string) ([]Notebook, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, title, description, created_at, updated_at FROM notebooks WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notebook
	for rows.Next() {
		var nb Notebook
		if err := rows.Scan(&nb.ID, &nb.OwnerID, &nb.Title, &nb.Description, &nb.CreatedAt, &nb.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, nb)
	}
	return out, rows.Err()
}

// Update changes title/description.
func (s *NotebookStore) Update(id, ownerID, title, description string) error {
	res, err := s.db.Exec(
		`UPDATE notebooks SET title = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND owner_id = ?`,
		title, description, id, ownerID,
	)
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

// Delete removes the notebook row. Foreign keys with ON DELETE CASCADE
// remove its NotebookSource and NotebookMessage rows.
func (s *NotebookStore) Delete(id, ownerID string) error {
	res, err := s.db.Exec(`DELETE FROM notebooks WHERE id = ? AND owner_id = ?`, id, ownerID)
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
