// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package resource

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/eventbus"
	"github.com/the-hive/internal/objectstore"
	"github.com/the-hive/internal/vectordb"
)

// SourceService implements Source CRUD (4.D.3). Creating a url or text
// source publishes a synthetic change event so the indexing worker's
// dispatch table has exactly one path for every non-document source.
type SourceService struct {
	sources *database.SourceStore
	bus     *eventbus.Publisher
}

// NewSourceService wires the dependencies Source CRUD needs.
func NewSourceService(sources *database.SourceStore, bus *eventbus.Publisher) *SourceService {
	return &SourceService{sources: sources, bus: bus}
}

// CreateInput is the metadata shape validated per SourceType.
type CreateInput struct {
	OwnerID        string
	Title          string
	Description    string
	SourceType     database.SourceType
	SourceMetadata string // JSON; URL expects {"url": "..."}, text expects {"content": "..."}
}

// Create inserts a source row. For url and text sources it publishes a
// URLSourceEvent{op:c} immediately so the worker fetches/embeds it the
// same way it would a document.
func (s *SourceService) Create(ctx context.Context, in CreateInput) (*database.Source, error) {
	if in.Title == "" {
		return nil, apperr.Validationf("source title is required")
	}
	switch in.SourceType {
	case database.SourceDocument, database.SourceURL, database.SourceVideo, database.SourceImage, database.SourceText:
	default:
		return nil, apperr.Validationf("unsupported source type %q", in.SourceType)
	}
	if err := validateMetadataShape(in.SourceType, in.SourceMetadata); err != nil {
		return nil, err
	}

	src := &database.Source{
		ID:             uuid.NewString(),
		OwnerID:        in.OwnerID,
		Title:          in.Title,
		Description:    in.Description,
		SourceType:     in.SourceType,
		SourceMetadata: in.SourceMetadata,
		Status:         database.SourcePending,
	}
	if src.SourceMetadata == "" {
		src.SourceMetadata = "{}"
	}

	if err := s.sources.Insert(src); err != nil {
		return nil, fmt.Errorf("inserting source: %w", err)
	}

	if in.SourceType == database.SourceURL || in.SourceType == database.SourceText {
		s.bus.Publish(ctx, eventbus.Event{
			Op:         eventbus.OpCreate,
			EntityType: "url_source",
			EntityID:   src.ID,
			OwnerID:    in.OwnerID,
		})
	}

	return src, nil
}

// validateMetadataShape enforces the per-type metadata contract:
// document sources carry {document_id}, url sources carry {url}, text
// sources carry {content}. An empty metadata string is treated as {}.
func validateMetadataShape(sourceType database.SourceType, metadata string) error {
	requiredKey := ""
	switch sourceType {
	case database.SourceDocument:
		requiredKey = "document_id"
	case database.SourceURL:
		requiredKey = "url"
	case database.SourceText:
		requiredKey = "content"
	default:
		return nil
	}

	raw := metadata
	if raw == "" {
		raw = "{}"
	}
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return apperr.Validationf("invalid metadata: %v", err)
	}
	value, ok := fields[requiredKey].(string)
	if !ok || value == "" {
		return apperr.Validationf("invalid metadata: %q source requires a non-empty %q field", sourceType, requiredKey)
	}
	return nil
}

// Get returns a source by id, scoped to ownerID.
func (s *SourceService) Get(id, ownerID string) (*database.Source, error) {
	src, err := s.sources.GetByID(id, ownerID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("source %s not found", id)
	}
	return src, err
}

// List returns every source owned by ownerID.
func (s *SourceService) List(ownerID string) ([]database.Source, error) {
	return s.sources.List(ownerID)
}

// SourceDeleteService implements the cascade rules in 4.D.3: a
// document source's deletion also removes the vector points, blob and
// row of the Document whose source_id names it; a url/text source's
// deletion only removes its vector points and row.
type SourceDeleteService struct {
	sources *database.SourceStore
	docs    *database.DocumentStore
	blobs   *objectstore.Gateway
	vectors vectordb.VectorDB
	bus     *eventbus.Publisher
	incons  *database.InconsistencyLogStore
}

// NewSourceDeleteService wires the dependencies source cascade delete needs.
func NewSourceDeleteService(sources *database.SourceStore, docs *database.DocumentStore, blobs *objectstore.Gateway,
	vectors vectordb.VectorDB, bus *eventbus.Publisher, incons *database.InconsistencyLogStore) *SourceDeleteService {
	return &SourceDeleteService{sources: sources, docs: docs, blobs: blobs, vectors: vectors, bus: bus, incons: incons}
}

// Delete removes src's vector points, then its row, applying the
// document-specific vector/blob/row cascade when applicable. Vector,
// blob and document-row failures are logged, not fatal: the source row
// still gets deleted under an eventual-consistency contract, with the
// drift recorded in the inconsistency log.
func (s *SourceDeleteService) Delete(ctx context.Context, id, ownerID string) error {
	src, err := s.sources.GetByID(id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.NotFoundf("source %s not found", id)
		}
		return fmt.Errorf("loading source: %w", err)
	}

	if err := s.vectors.DeleteByLogicalID(ctx, src.ID); err != nil {
		s.markInconsistent(src.ID, fmt.Sprintf("vector delete failed: %v", err))
	}

	if src.SourceType == database.SourceDocument {
		if doc, err := s.docs.GetBySourceID(src.ID, ownerID); err == nil && doc != nil {
			if err := s.vectors.DeleteByLogicalID(ctx, doc.ID); err != nil {
				s.markInconsistent(doc.ID, fmt.Sprintf("vector delete failed: %v", err))
			}
			if err := s.blobs.Delete(ctx, doc.ObjectKey); err != nil {
				s.markInconsistent(doc.ID, fmt.Sprintf("blob delete failed: %v", err))
			}
			if err := s.docs.Delete(doc.ID, ownerID); err != nil {
				s.markInconsistent(doc.ID, fmt.Sprintf("document row delete failed: %v", err))
			}
		}
	}

	evEntity := "url_source"
	if src.SourceType == database.SourceDocument {
		evEntity = "document"
	}
	s.bus.Publish(ctx, eventbus.Event{
		Op:         eventbus.OpDelete,
		EntityType: evEntity,
		EntityID:   src.ID,
		OwnerID:    ownerID,
	})

	if err := s.sources.Delete(src.ID, ownerID); err != nil {
		return fmt.Errorf("deleting source row: %w", err)
	}
	return nil
}

func (s *SourceDeleteService) markInconsistent(entityID, details string) {
	if s.incons == nil {
		return
	}
	if err := s.incons.Mark("source_delete", entityID, details); err != nil {
		fmt.Printf("resource: failed to log inconsistency for source %s: %v\n", entityID, err)
	}
}
