// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/resource"
)

// NotebookSourceHandler serves the /notebooks/{nb}/sources surface.
type NotebookSourceHandler struct {
	memberships *resource.NotebookSourceService
}

// NewNotebookSourceHandler wires the membership service.
func NewNotebookSourceHandler(memberships *resource.NotebookSourceService) *NotebookSourceHandler {
	return &NotebookSourceHandler{memberships: memberships}
}

type addSourceRequest struct {
	SourceID string `json:"source_id"`
	Position int    `json:"position"`
}

// HandleAdd handles POST /notebooks/{nb}/sources.
func (h *NotebookSourceHandler) HandleAdd(w http.ResponseWriter, r *http.Request, notebookID string) {
	var req addSourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Validationf("invalid request body: %v", err))
		return
	}
	position := req.Position
	if position == 0 {
		position = -1
	}
	row, err := h.memberships.Add(notebookID, req.SourceID, position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// HandleList handles GET /notebooks/{nb}/sources.
func (h *NotebookSourceHandler) HandleList(w http.ResponseWriter, r *http.Request, notebookID string) {
	rows, err := h.memberships.List(notebookID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sources": rows})
}

type reorderRequest struct {
	Position int `json:"position"`
}

// HandleReorder handles PUT /notebooks/{nb}/sources/{membershipID}.
func (h *NotebookSourceHandler) HandleReorder(w http.ResponseWriter, r *http.Request, membershipID string) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Validationf("invalid request body: %v", err))
		return
	}
	if err := h.memberships.Reorder(membershipID, req.Position); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "membership reordered"})
}

// HandleRemove handles DELETE /notebooks/{nb}/sources/{sourceID}.
func (h *NotebookSourceHandler) HandleRemove(w http.ResponseWriter, r *http.Request, notebookID, sourceID string) {
	if err := h.memberships.Remove(notebookID, sourceID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "membership removed"})
}
