// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package resource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/eventbus"
	"github.com/the-hive/internal/objectstore"
	"github.com/the-hive/internal/vectordb"
)

// DeleteDocumentService implements the blob-first delete contract
// (4.D.2): delete the blob before the row so a crash between the two
// steps leaves at worst an orphaned row, never an orphaned blob.
type DeleteDocumentService struct {
	docs    *database.DocumentStore
	blobs   *objectstore.Gateway
	vectors vectordb.VectorDB
	bus     *eventbus.Publisher
	incons  *database.InconsistencyLogStore
}

// NewDeleteDocumentService wires the dependencies a document delete needs.
func NewDeleteDocumentService(docs *database.DocumentStore, blobs *objectstore.Gateway,
	vectors vectordb.VectorDB, bus *eventbus.Publisher, incons *database.InconsistencyLogStore) *DeleteDocumentService {
	return &DeleteDocumentService{docs: docs, blobs: blobs, vectors: vectors, bus: bus, incons: incons}
}

// Delete removes a document's blob, vector points, and row, in that order.
func (s *DeleteDocumentService) Delete(ctx context.Context, id, ownerID string) error {
	doc, err := s.docs.GetByID(id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.NotFoundf("document %s not found", id)
		}
		return fmt.Errorf("loading document: %w", err)
	}

	if err := s.blobs.Delete(ctx, doc.ObjectKey); err != nil {
		return apperr.Wrap(apperr.ExternalUnavailable, "failed to delete document blob", err)
	}

	if err := s.vectors.DeleteByLogicalID(ctx, doc.ID); err != nil {
		s.markInconsistent(doc.ID, fmt.Sprintf("vector delete failed: %v", err))
	}

	s.bus.Publish(ctx, eventbus.Event{
		Op:         eventbus.OpDelete,
		EntityType: "document",
		EntityID:   doc.ID,
		OwnerID:    ownerID,
	})

	if err := s.docs.Delete(doc.ID, ownerID); err != nil {
		s.markInconsistent(doc.ID, fmt.Sprintf("blob_deleted_but_row_remains: %v", err))
		return fmt.Errorf("deleting document row after blob delete succeeded: %w", err)
	}

	return nil
}

func (s *DeleteDocumentService) markInconsistent(entityID, details string) {
	if s.incons == nil {
		return
	}
	if err := s.incons.Mark("document_delete", entityID, details); err != nil {
		fmt.Printf("resource: failed to log inconsistency for document %s: %v\n", entityID, err)
	}
}
