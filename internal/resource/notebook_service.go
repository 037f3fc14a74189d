// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package resource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/database"
)

// NotebookService implements Notebook CRUD.
type NotebookService struct {
	notebooks *database.NotebookStore
}

// NewNotebookService wires the dependency notebook CRUD needs.
func NewNotebookService(notebooks *database.NotebookStore) *NotebookService {
	return &NotebookService{notebooks: notebooks}
}

// Create inserts a new notebook.
func (s *NotebookService) Create(ownerID, title, description string) (*database.Notebook, error) {
	if title == "" {
		return nil, apperr.Validationf("notebook title is required")
	}
	nb := &database.Notebook{ID: uuid.NewString(), OwnerID: ownerID, Title: title, Description: description}
	if err := s.notebooks.Insert(nb); err != nil {
		return nil, fmt.Errorf("inserting notebook: %w", err)
	}
	return nb, nil
}

// Get returns a notebook by id, scoped to ownerID.
func (s *NotebookService) Get(id, ownerID string) (*database.Notebook, error) {
	nb, err := s.notebooks.GetByID(id, ownerID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("notebook %s not found", id)
	}
	return nb, err
}

// List returns every notebook owned by ownerID.
func (s *NotebookService) List(ownerID string) ([]database.Notebook, error) {
	return s.notebooks.List(ownerID)
}

// Update changes a notebook's title/description.
func (s *NotebookService) Update(id, ownerID, title, description string) (*database.Notebook, error) {
	if err := s.notebooks.Update(id, ownerID, title, description); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFoundf("notebook %s not found", id)
		}
		return nil, err
	}
	return s.notebooks.GetByID(id, ownerID)
}

// CleanupSummary reports what the orphan-aware cascade delete did.
type CleanupSummary struct {
	Orphaned       int      `json:"orphaned"`
	DeletedSources []string `json:"deleted_sources"`
	Failed         []string `json:"failed"`
}

// NotebookDeleteService implements the orphan-aware cascade delete
// (4.D.4): a source with no other parent notebook is deleted outright
// via SourceDeleteService before the notebook row itself is removed.
type NotebookDeleteService struct {
	notebooks   *database.NotebookStore
	memberships *database.NotebookSourceStore
	sourceDel   *SourceDeleteService
}

// NewNotebookDeleteService wires the dependencies notebook cascade delete needs.
func NewNotebookDeleteService(notebooks *database.NotebookStore, memberships *database.NotebookSourceStore,
	sourceDel *SourceDeleteService) *NotebookDeleteService {
	return &NotebookDeleteService{notebooks: notebooks, memberships: memberships, sourceDel: sourceDel}
}

// Delete identifies orphaned sources, deletes each via
// SourceDeleteService, then deletes the notebook row (DB cascade
// removes the remaining membership and message rows).
func (s *NotebookDeleteService) Delete(ctx context.Context, id, ownerID string) (*CleanupSummary, error) {
	if _, err := s.notebooks.GetByID(id, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFoundf("notebook %s not found", id)
		}
		return nil, fmt.Errorf("loading notebook: %w", err)
	}

	members, err := s.memberships.List(id)
	if err != nil {
		return nil, fmt.Errorf("listing notebook sources: %w", err)
	}

	summary := &CleanupSummary{}
	for _, m := range members {
		otherParents, err := s.memberships.OtherParentCount(m.SourceID, id, ownerID)
		if err != nil {
			summary.Failed = append(summary.Failed, m.SourceID)
			continue
		}
		if otherParents > 0 {
			continue
		}
		summary.Orphaned++
		if err := s.sourceDel.Delete(ctx, m.SourceID, ownerID); err != nil {
			summary.Failed = append(summary.Failed, m.SourceID)
			continue
		}
		summary.DeletedSources = append(summary.DeletedSources, m.SourceID)
	}

	if err := s.notebooks.Delete(id, ownerID); err != nil {
		return summary, fmt.Errorf("deleting notebook row: %w", err)
	}

	return summary, nil
}
