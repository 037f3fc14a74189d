// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"
	"strconv"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/embeddings"
	"github.com/the-hive/internal/retrieval"
	"github.com/the-hive/internal/vectordb"
)

// SearchHandler serves the /search surface: the retrieval tool's HTTP
// entry point and a shallow health probe of its two collaborators.
type SearchHandler struct {
	tool     *retrieval.Tool
	vectors  vectordb.VectorDB
	embedder embeddings.Embedder
	audit    *database.AuditLogStore
}

// NewSearchHandler wires the dependencies the search surface needs.
// audit may be nil to skip logging (e.g. in tests).
func NewSearchHandler(tool *retrieval.Tool, vectors vectordb.VectorDB, embedder embeddings.Embedder,
	audit *database.AuditLogStore) *SearchHandler {
	return &SearchHandler{tool: tool, vectors: vectors, embedder: embedder, audit: audit}
}

// HandleSearchDocuments handles GET /search/documents?query&limit&score_threshold&source_ids.
func (h *SearchHandler) HandleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerIDFromContext(r.Context())
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, apperr.Validationf("query is required"))
		return
	}

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			writeError(w, apperr.Validationf("limit must be an integer within [1, 50]"))
			return
		}
		limit = n
	}

	threshold := float32(-1)
	if v := r.URL.Query().Get("score_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil || f < 0 || f > 1 {
			writeError(w, apperr.Validationf("score_threshold must be a float within [0, 1]"))
			return
		}
		threshold = float32(f)
	}

	sourceIDs := r.URL.Query()["source_ids"]

	answer, err := h.tool.LookUpSourcesWithThreshold(r.Context(), query, limit, threshold, sourceIDs, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	audit(h.audit, r, database.AuditActionSearch, "query=\""+query+"\"")
	writeJSON(w, http.StatusOK, map[string]string{"result": answer})
}

// HandleSearchHealth handles GET /search/health.
func (h *SearchHandler) HandleSearchHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}

	qdrantOK := true
	if _, err := h.vectors.PointCount(r.Context()); err != nil {
		qdrantOK = false
		body["status"] = "degraded"
	}
	body["qdrant"] = qdrantOK

	embedderOK := true
	if _, err := h.embedder.EmbedText(r.Context(), "healthcheck"); err != nil {
		embedderOK = false
		body["status"] = "degraded"
	}
	body["openai"] = embedderOK

	status := http.StatusOK
	if !qdrantOK || !embedderOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}
