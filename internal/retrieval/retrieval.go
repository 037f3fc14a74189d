// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package retrieval implements the "look up sources" tool exposed to
// the chat agent: embed a query, search the vector index restricted to
// the notebook's selected sources, and format the hits as a short
// textual block the agent can quote from.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/the-hive/internal/embeddings"
	"github.com/the-hive/internal/vectordb"
)

// defaultScoreThreshold filters out low-relevance matches from the
// formatted block; Search itself has no notion of a threshold, so this
// package enforces it client-side.
const defaultScoreThreshold = 0.2

const chunkPreviewLen = 300

// NoSourcesSelectedMessage is returned verbatim when a lookup is
// attempted with no sources in scope, per the tool's step 1.
const NoSourcesSelectedMessage = "No sources selected. Please select at least one source and try again."

// Tool implements "look up sources".
type Tool struct {
	embedder  embeddings.Embedder
	vectors   vectordb.VectorDB
	topK      int
	threshold float32
}

// NewTool wires the dependencies the lookup needs. topK and threshold
// fall back to the tool's own defaults (5, 0.2) when zero.
func NewTool(embedder embeddings.Embedder, vectors vectordb.VectorDB, topK int, threshold float32) *Tool {
	if topK <= 0 {
		topK = 5
	}
	if threshold <= 0 {
		threshold = defaultScoreThreshold
	}
	return &Tool{embedder: embedder, vectors: vectors, topK: topK, threshold: threshold}
}

// LookUpSources runs the tool: embeds query, searches the vector index
// restricted to selectedSourceIDs and ownerID, and returns the
// formatted result block.
func (t *Tool) LookUpSources(ctx context.Context, query string, topK int, selectedSourceIDs []string, ownerID string) (string, error) {
	return t.LookUpSourcesWithThreshold(ctx, query, topK, t.threshold, selectedSourceIDs, ownerID)
}

// LookUpSourcesWithThreshold is LookUpSources with a caller-supplied
// score threshold, used by callers that accept a per-request override
// (e.g. an HTTP query parameter) instead of the tool's configured default.
func (t *Tool) LookUpSourcesWithThreshold(ctx context.Context, query string, topK int, threshold float32, selectedSourceIDs []string, ownerID string) (string, error) {
	if len(selectedSourceIDs) == 0 {
		return NoSourcesSelectedMessage, nil
	}

	if topK <= 0 {
		topK = t.topK
	}
	if threshold < 0 {
		threshold = t.threshold
	}

	vector, err := t.embedder.EmbedText(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}

	matches, err := t.vectors.Search(ctx, vector, topK, selectedSourceIDs, ownerID)
	if err != nil {
		return "", fmt.Errorf("searching vector index: %w", err)
	}

	return formatMatches(matches, threshold), nil
}

func formatMatches(matches []vectordb.Match, threshold float32) string {
	var b strings.Builder
	i := 0
	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		i++
		ref := m.DocumentID
		if ref == "" {
			ref = m.SourceID
		}
		fmt.Fprintf(&b, "%d. score=%.3f ref=%s", i, m.Score, ref)
		if url := m.Metadata["url"]; url != "" {
			fmt.Fprintf(&b, " url=%s", url)
		}
		b.WriteString("\n")
		b.WriteString(truncate(m.ChunkText, chunkPreviewLen))
		b.WriteString("\n\n")
	}

	if i == 0 {
		return "no relevant passages found"
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
