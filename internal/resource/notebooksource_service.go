// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package resource

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/database"
)

// NotebookSourceService implements the membership junction contract
// (4.D.5): adding an existing (notebook, source) pair is a no-op that
// returns the existing row rather than a conflict.
type NotebookSourceService struct {
	memberships *database.NotebookSourceStore
}

// NewNotebookSourceService wires the dependency membership ops need.
func NewNotebookSourceService(memberships *database.NotebookSourceStore) *NotebookSourceService {
	return &NotebookSourceService{memberships: memberships}
}

// Add inserts a membership row at the given position, or the next
// available position if position < 0. Idempotent: an existing pair is
// returned unchanged.
func (s *NotebookSourceService) Add(notebookID, sourceID string, position int) (*database.NotebookSource, error) {
	if existing, err := s.memberships.GetByPair(notebookID, sourceID); err == nil {
		return existing, nil
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking existing membership: %w", err)
	}

	if position < 0 {
		next, err := s.memberships.NextPosition(notebookID)
		if err != nil {
			return nil, fmt.Errorf("computing next position: %w", err)
		}
		position = next
	}

	row := &database.NotebookSource{ID: uuid.NewString(), NotebookID: notebookID, SourceID: sourceID, Position: position}
	if err := s.memberships.Insert(row); err != nil {
		return nil, apperr.Wrap(apperr.Conflict, "failed to add notebook source", err)
	}
	return row, nil
}

// List returns a notebook's membership rows ordered by position.
func (s *NotebookSourceService) List(notebookID string) ([]database.NotebookSource, error) {
	return s.memberships.List(notebookID)
}

// Reorder updates a membership row's position.
func (s *NotebookSourceService) Reorder(membershipID string, position int) error {
	return s.memberships.UpdatePosition(membershipID, position)
}

// Remove deletes the junction row only; the source itself survives.
func (s *NotebookSourceService) Remove(notebookID, sourceID string) error {
	if err := s.memberships.Delete(notebookID, sourceID); err != nil {
		if err == sql.ErrNoRows {
			return apperr.NotFoundf("notebook %s has no membership for source %s", notebookID, sourceID)
		}
		return err
	}
	return nil
}
