// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package indexer

import (
	"context"
	"fmt"

	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/parser"
	"github.com/the-hive/internal/vectordb"
)

// indexDocument implements the document half of 4.E.2-4.E.5: fetch the
// blob, extract text with the processor matching the stored filename,
// chunk, embed, upsert keyed by document id, and record the terminal
// status regardless of which step failed.
func (d *TaskDispatcher) indexDocument(ctx context.Context, documentID, ownerID string) error {
	doc, err := d.docs.GetByID(documentID, ownerID)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", documentID, err)
	}

	if err := d.docs.UpdateStatus(doc.ID, database.DocumentProcessing); err != nil {
		return fmt.Errorf("marking document %s processing: %w", doc.ID, err)
	}

	if err := d.runDocument(ctx, doc); err != nil {
		if statusErr := d.docs.UpdateStatus(doc.ID, database.DocumentFailed); statusErr != nil {
			return fmt.Errorf("%w (also failed to mark document failed: %v)", err, statusErr)
		}
		return err
	}

	return d.docs.UpdateStatus(doc.ID, database.DocumentIndexed)
}

func (d *TaskDispatcher) runDocument(ctx context.Context, doc *database.Document) error {
	proc, err := parser.ForFilename(doc.Filename, d.limits)
	if err != nil {
		return fmt.Errorf("selecting processor for %s: %w", doc.Filename, err)
	}

	data, err := d.blobs.Get(ctx, doc.ObjectKey)
	if err != nil {
		return fmt.Errorf("fetching blob %s: %w", doc.ObjectKey, err)
	}

	text, err := proc.Process(data)
	if err != nil {
		return fmt.Errorf("extracting text from %s: %w", doc.Filename, err)
	}

	chunks, vecs, err := d.embedChunks(ctx, text)
	if err != nil {
		return fmt.Errorf("document %s: %w", doc.ID, err)
	}

	meta := vectordb.PointMeta{DocumentID: doc.ID, OwnerID: doc.OwnerID, Filename: doc.Filename}
	if err := d.vectors.Upsert(ctx, doc.ID, chunks, vecs, meta); err != nil {
		return fmt.Errorf("upserting vectors for document %s: %w", doc.ID, err)
	}

	return nil
}
