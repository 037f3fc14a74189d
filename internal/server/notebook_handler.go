// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/resource"
)

// NotebookHandler serves the /notebooks surface.
type NotebookHandler struct {
	notebooks *resource.NotebookService
	deletes   *resource.NotebookDeleteService
	audit     *database.AuditLogStore
}

// NewNotebookHandler wires the dependencies the notebooks surface needs.
// audit may be nil to skip logging (e.g. in tests).
func NewNotebookHandler(notebooks *resource.NotebookService, deletes *resource.NotebookDeleteService,
	audit *database.AuditLogStore) *NotebookHandler {
	return &NotebookHandler{notebooks: notebooks, deletes: deletes, audit: audit}
}

type notebookRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleCreate handles POST /notebooks.
func (h *NotebookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerIDFromContext(r.Context())
	var req notebookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Validationf("invalid request body: %v", err))
		return
	}
	nb, err := h.notebooks.Create(ownerID, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

// HandleList handles GET /notebooks.
func (h *NotebookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerIDFromContext(r.Context())
	list, err := h.notebooks.List(ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notebooks": list})
}

// HandleGet handles GET /notebooks/{id}.
func (h *NotebookHandler) HandleGet(w http.ResponseWriter, r *http.Request, id string) {
	ownerID := ownerIDFromContext(r.Context())
	nb, err := h.notebooks.Get(id, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

// HandleUpdate handles PUT /notebooks/{id}.
func (h *NotebookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	ownerID := ownerIDFromContext(r.Context())
	var req notebookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Validationf("invalid request body: %v", err))
		return
	}
	nb, err := h.notebooks.Update(id, ownerID, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

// HandleDelete handles DELETE /notebooks/{id}.
func (h *NotebookHandler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	ownerID := ownerIDFromContext(r.Context())
	summary, err := h.deletes.Delete(r.Context(), id, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	audit(h.audit, r, database.AuditActionDelete, "deleted notebook "+id)
	writeJSON(w, http.StatusOK, summary)
}
