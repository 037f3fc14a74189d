// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"net/http"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/resource"
)

// marshalMetadata re-encodes a decoded JSON value back into the
// canonical string form Source.SourceMetadata stores.
func marshalMetadata(v interface{}) (string, error) {
	if v == nil {
		return "{}", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SourceHandler serves the /sources surface.
type SourceHandler struct {
	sources *resource.SourceService
	deletes *resource.SourceDeleteService
	audit   *database.AuditLogStore
}

// NewSourceHandler wires the dependencies the sources surface needs.
// audit may be nil to skip logging (e.g. in tests).
func NewSourceHandler(sources *resource.SourceService, deletes *resource.SourceDeleteService,
	audit *database.AuditLogStore) *SourceHandler {
	return &SourceHandler{sources: sources, deletes: deletes, audit: audit}
}

type createSourceRequest struct {
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	SourceType     database.SourceType `json:"source_type"`
	SourceMetadata interface{}         `json:"source_metadata"`
}

// HandleCreate handles POST /sources.
func (h *SourceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerIDFromContext(r.Context())
	var req createSourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Validationf("invalid request body: %v", err))
		return
	}

	metadata, err := marshalMetadata(req.SourceMetadata)
	if err != nil {
		writeError(w, apperr.Validationf("invalid source_metadata: %v", err))
		return
	}

	src, err := h.sources.Create(r.Context(), resource.CreateInput{
		OwnerID: ownerID, Title: req.Title, Description: req.Description,
		SourceType: req.SourceType, SourceMetadata: metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

// HandleList handles GET /sources.
func (h *SourceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerIDFromContext(r.Context())
	list, err := h.sources.List(ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sources": list})
}

// HandleGet handles GET /sources/{id}.
func (h *SourceHandler) HandleGet(w http.ResponseWriter, r *http.Request, id string) {
	ownerID := ownerIDFromContext(r.Context())
	src, err := h.sources.Get(id, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

// HandleDelete handles DELETE /sources/{id}.
func (h *SourceHandler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	ownerID := ownerIDFromContext(r.Context())
	if err := h.deletes.Delete(r.Context(), id, ownerID); err != nil {
		writeError(w, err)
		return
	}
	audit(h.audit, r, database.AuditActionDelete, "deleted source "+id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "source deleted"})
}
