// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package indexer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/vectordb"
)

// sourceMetadata is the subset of Source.SourceMetadata the indexer
// reads: a url source carries URL, a text source carries Content
// directly, already in its final extracted form.
type sourceMetadata struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// indexURLSource implements the url/text half of 4.E.2-4.E.5. A url
// source is fetched and reshaped by URLProcessor; a text source's
// content is already plain text and skips extraction entirely.
func (d *TaskDispatcher) indexURLSource(ctx context.Context, sourceID, ownerID string) error {
	src, err := d.sources.GetByID(sourceID, ownerID)
	if err != nil {
		return fmt.Errorf("loading source %s: %w", sourceID, err)
	}

	if err := d.sources.UpdateStatus(src.ID, database.SourceProcessing); err != nil {
		return fmt.Errorf("marking source %s processing: %w", src.ID, err)
	}

	if err := d.runURLSource(ctx, src); err != nil {
		if statusErr := d.sources.UpdateStatus(src.ID, database.SourceFailed); statusErr != nil {
			return fmt.Errorf("%w (also failed to mark source failed: %v)", err, statusErr)
		}
		return err
	}

	return d.sources.UpdateStatus(src.ID, database.SourceIndexed)
}

func (d *TaskDispatcher) runURLSource(ctx context.Context, src *database.Source) error {
	var meta sourceMetadata
	if err := json.Unmarshal([]byte(src.SourceMetadata), &meta); err != nil {
		return fmt.Errorf("decoding metadata for source %s: %w", src.ID, err)
	}

	var text string
	switch src.SourceType {
	case database.SourceText:
		text = meta.Content
	case database.SourceURL:
		fetched, err := d.fetcher.Fetch(ctx, meta.URL)
		if err != nil {
			return fmt.Errorf("fetching source %s: %w", src.ID, err)
		}
		text = fetched
	default:
		return fmt.Errorf("source %s has unsupported type %q for indexing", src.ID, src.SourceType)
	}

	chunks, vecs, err := d.embedChunks(ctx, text)
	if err != nil {
		return fmt.Errorf("source %s: %w", src.ID, err)
	}

	pointMeta := vectordb.PointMeta{SourceID: src.ID, OwnerID: src.OwnerID, SourceType: string(src.SourceType), URL: meta.URL}
	if err := d.vectors.Upsert(ctx, src.ID, chunks, vecs, pointMeta); err != nil {
		return fmt.Errorf("upserting vectors for source %s: %w", src.ID, err)
	}

	return nil
}
