// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/resource"
)

// MessageHandler serves the /notebooks/{nb}/messages surface.
type MessageHandler struct {
	messages *resource.MessageService
}

// NewMessageHandler wires the dependency the messages surface needs.
func NewMessageHandler(messages *resource.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type appendMessageRequest struct {
	Role        database.MessageRole `json:"role"`
	Content     string               `json:"content"`
	UsedSources []string             `json:"used_sources"`
}

// HandleAppend handles POST /notebooks/{nb}/messages.
func (h *MessageHandler) HandleAppend(w http.ResponseWriter, r *http.Request, notebookID string) {
	var req appendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.Validationf("invalid request body: %v", err))
		return
	}
	if req.Role != database.RoleUser && req.Role != database.RoleAssistant {
		writeError(w, apperr.Validationf("role must be \"user\" or \"assistant\", got %q", req.Role))
		return
	}
	if req.Content == "" {
		writeError(w, apperr.Validationf("content is required"))
		return
	}

	m, err := h.messages.Append(notebookID, req.Role, req.Content, req.UsedSources)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleList handles GET /notebooks/{nb}/messages.
func (h *MessageHandler) HandleList(w http.ResponseWriter, r *http.Request, notebookID string) {
	list, err := h.messages.List(notebookID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": list})
}
