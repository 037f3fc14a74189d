// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// NotebookSource is the M:N membership row between notebooks and sources.
type NotebookSource struct {
	ID         string
	NotebookID string
	SourceID   string
	Position   int
	AddedAt    time.Time
}

// NotebookSourceStore manages the notebook_sources junction table.
type NotebookSourceStore struct {
	db *sql.DB
}

// NewNotebookSourceStore creates a new junction-table store.
func NewNotebookSourceStore(db *sql.DB) (*NotebookSourceStore, error) {
	store := &NotebookSourceStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize notebook_sources schema: %w", err)
	}
	return store, nil
}

func (s *NotebookSourceStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS notebook_sources (
		id TEXT PRIMARY KEY,
		notebook_id TEXT NOT NULL REFERENCES notebooks(id) ON DELETE CASCADE,
		source_id TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_notebook_source ON notebook_sources(notebook_id, source_id);
	CREATE INDEX IF NOT EXISTS idx_notebook_sources_notebook_id ON notebook_sources(notebook_id);
	CREATE INDEX IF NOT EXISTS idx_notebook_sources_source_id ON notebook_sources(source_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetByPair returns the existing membership row for (notebookID, sourceID), if any.
func (s *NotebookSourceStore) GetByPair(notebookID, sourceID string) (*NotebookSource, error) {
	row := s.db.QueryRow(
		`SELECT id, notebook_id, source_id, position, added_at FROM notebook_sources WHERE notebook_id = ? AND source_id = ?`,
		notebookID, sourceID)
	var ns NotebookSource
	if err := row.Scan(&ns.ID, &ns.NotebookID, &ns.SourceID, &ns.Position, &ns.AddedAt); err != nil {
		return nil, err
	}
	return &ns, nil
}

// NextPosition returns max(position)+1 for the notebook, or 0 if empty.
func (s *NotebookSourceStore) NextPosition(notebookID string) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(position) FROM notebook_sources WHERE notebook_id = ?`, notebookID).Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

// Insert creates a membership row at the given position.
func (s *NotebookSourceStore) Insert(ns *NotebookSource) error {
	_, err := s.db.Exec(
		`INSERT INTO notebook_sources (id, notebook_id, source_id, position) VALUES (?, ?, ?, ?)`,
		ns.ID, ns.NotebookID, ns.SourceID, ns.Position,
	)
	return err
}

// List returns every membership row for a notebook, ordered by position.
func (s *NotebookSourceStore) List(notebookID string) ([]NotebookSource, error) {
	rows, err := s.db.Query(
		`SELECT id, notebook_id, source_id, position, added_at FROM notebook_sources WHERE notebook_id = ? ORDER BY position ASC`,
		notebookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NotebookSource
	for rows.Next() {
		var ns NotebookSource
		if err := rows.Scan(&ns.ID, &ns.NotebookID, &ns.SourceID, &ns.Position, &ns.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

// OtherParentCount returns how many notebooks *besides* excludeNotebookID
// contain sourceID, scoped to notebooks owned by ownerID. Used by the
// notebook-delete cascade to decide whether a source is an orphan.
func (s *NotebookSourceStore) OtherParentCount(sourceID, excludeNotebookID, ownerID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notebook_sources ns
		 JOIN notebooks nb ON nb.id = ns.notebook_id
		 WHERE ns.source_id = ? AND ns.notebook_id != ? AND nb.owner_id = ?`,
		sourceID, excludeNotebookID, ownerID,
	).Scan(&count)
	return count, err
}

// UpdatePosition reorders a membership row.
func (s *NotebookSourceStore) UpdatePosition(id string, position int) error {
	_, err := s.db.Exec(`UPDATE notebook_sources SET position = ? WHERE id = ?`, position, id)
	return err
}

// Delete removes the junction row only, never the source itself.
func (s *NotebookSourceStore) Delete(notebookID, sourceID string) error {
	res, err := s.db.Exec(`DELETE FROM notebook_sources WHERE notebook_id = ? AND source_id = ?`, notebookID, sourceID)
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
