// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/the-hive/internal/embeddings"
	"github.com/the-hive/internal/vectordb"
)

type fakeVectors struct {
	matches []vectordb.Match
	gotIDs  []string
	gotUser string
}

func (f *fakeVectors) Upsert(ctx context.Context, logicalID string, chunks []string, embeds [][]float32, meta vectordb.PointMeta) error {
	return nil
}
func (f *fakeVectors) Search(ctx context.Context, vector []float32, topK int, ids []string, ownerID string) ([]vectordb.Match, error) {
	f.gotIDs = ids
	f.gotUser = ownerID
	return f.matches, nil
}
func (f *fakeVectors) DeleteByLogicalID(ctx context.Context, logicalID string) error { return nil }
func (f *fakeVectors) PurgeByOwner(ctx context.Context, ownerID string) error        { return nil }
func (f *fakeVectors) PurgeCollection(ctx context.Context) error                    { return nil }
func (f *fakeVectors) PointCount(ctx context.Context) (int, error)                  { return 0, nil }

func TestLookUpSourcesReturnsSentinelWhenNoneSelected(t *testing.T) {
	tool := NewTool(embeddings.NewMockEmbedder(8), &fakeVectors{}, 5, 0.2)
	out, err := tool.LookUpSources(context.Background(), "what is the refund policy?", 5, nil, "u1")
	if err != nil {
		t.Fatalf("LookUpSources: %v", err)
	}
	if out != NoSourcesSelectedMessage {
		t.Fatalf("expected sentinel message, got %q", out)
	}
}

func TestLookUpSourcesFormatsHitsAndFiltersByThreshold(t *testing.T) {
	vectors := &fakeVectors{matches: []vectordb.Match{
		{DocumentID: "doc-1", Score: 0.91, ChunkText: strings.Repeat("a", 400)},
		{SourceID: "src-1", Score: 0.5, ChunkText: "short passage", Metadata: map[string]string{"url": "https://example.com"}},
		{DocumentID: "doc-2", Score: 0.05, ChunkText: "irrelevant"},
	}}
	tool := NewTool(embeddings.NewMockEmbedder(8), vectors, 5, 0.2)

	out, err := tool.LookUpSources(context.Background(), "query", 5, []string{"doc-1", "src-1"}, "u1")
	if err != nil {
		t.Fatalf("LookUpSources: %v", err)
	}

	if vectors.gotUser != "u1" {
		t.Fatalf("expected search scoped to owner u1, got %q", vectors.gotUser)
	}
	if strings.Contains(out, "irrelevant") {
		t.Fatalf("expected below-threshold match to be dropped: %q", out)
	}
	if !strings.Contains(out, "ref=doc-1") || !strings.Contains(out, "ref=src-1") {
		t.Fatalf("expected both refs present, got %q", out)
	}
	if !strings.Contains(out, "url=https://example.com") {
		t.Fatalf("expected url to be included for src-1 hit, got %q", out)
	}
	if !strings.Contains(out, "...") {
		t.Fatalf("expected the long chunk to be truncated, got %q", out)
	}
}

func TestLookUpSourcesReportsNoRelevantPassages(t *testing.T) {
	vectors := &fakeVectors{matches: []vectordb.Match{{DocumentID: "doc-1", Score: 0.01, ChunkText: "x"}}}
	tool := NewTool(embeddings.NewMockEmbedder(8), vectors, 5, 0.2)

	out, err := tool.LookUpSources(context.Background(), "query", 5, []string{"doc-1"}, "u1")
	if err != nil {
		t.Fatalf("LookUpSources: %v", err)
	}
	if out != "no relevant passages found" {
		t.Fatalf("expected no-relevant-passages message, got %q", out)
	}
}
