// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package indexer

import (
	"context"
	"fmt"

	"github.com/the-hive/internal/chunk"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/embeddings"
	"github.com/the-hive/internal/eventbus"
	"github.com/the-hive/internal/parser"
	"github.com/the-hive/internal/vectordb"
)

// BlobFetcher is the subset of objectstore.Gateway the indexer needs:
// read back a document's bytes by its object key.
type BlobFetcher interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// URLFetcher is the subset of parser.URLProcessor the indexer needs.
type URLFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// TaskDispatcher routes a delivered Event to the extract/chunk/embed/
// upsert pipeline for whichever entity kind it names, implementing the
// 4.E.1/4.E.2 dispatch table.
type TaskDispatcher struct {
	docs     *database.DocumentStore
	sources  *database.SourceStore
	blobs    BlobFetcher
	vectors  vectordb.VectorDB
	embedder embeddings.Embedder
	splitter *chunk.Splitter
	fetcher  URLFetcher
	limits   parser.Limits
}

// NewTaskDispatcher wires the dependencies every dispatch path needs.
func NewTaskDispatcher(docs *database.DocumentStore, sources *database.SourceStore, blobs BlobFetcher,
	vectors vectordb.VectorDB, embedder embeddings.Embedder, splitter *chunk.Splitter, fetcher URLFetcher,
	limits parser.Limits) *TaskDispatcher {
	return &TaskDispatcher{
		docs: docs, sources: sources, blobs: blobs, vectors: vectors,
		embedder: embedder, splitter: splitter, fetcher: fetcher, limits: limits,
	}
}

// Handle implements Dispatcher.
func (d *TaskDispatcher) Handle(ctx context.Context, ev eventbus.Event) error {
	switch ev.EntityType {
	case "document":
		if ev.Op == eventbus.OpDelete {
			return d.vectors.DeleteByLogicalID(ctx, ev.EntityID)
		}
		return d.indexDocument(ctx, ev.EntityID, ev.OwnerID)
	case "url_source":
		if ev.Op == eventbus.OpDelete {
			return d.vectors.DeleteByLogicalID(ctx, ev.EntityID)
		}
		return d.indexURLSource(ctx, ev.EntityID, ev.OwnerID)
	default:
		return fmt.Errorf("indexer: unknown entity type %q", ev.EntityType)
	}
}

// embedChunks splits text and embeds every resulting piece, satisfying
// the 4.E.4 postcondition that the chunk and embedding counts match.
// Extraction producing no text at all (e.g. a PDF with unreadable
// pages) is not an error: it yields zero chunks, indexed as such.
func (d *TaskDispatcher) embedChunks(ctx context.Context, text string) ([]string, [][]float32, error) {
	chunks := d.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, nil, nil
	}
	vecs, err := d.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return nil, nil, fmt.Errorf("embedding count mismatch: %d chunks vs %d vectors", len(chunks), len(vecs))
	}
	return chunks, vecs, nil
}
