// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package resource

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/the-hive/internal/database"
)

// MessageService appends to and lists a notebook's conversational history.
type MessageService struct {
	messages *database.MessageStore
}

// NewMessageService wires the dependency message ops need.
func NewMessageService(messages *database.MessageStore) *MessageService {
	return &MessageService{messages: messages}
}

// Append records one turn. usedSources, when non-nil, is stored as a
// JSON list so the UI can show which sources grounded an assistant reply.
func (s *MessageService) Append(notebookID string, role database.MessageRole, content string, usedSources []string) (*database.NotebookMessage, error) {
	m := &database.NotebookMessage{ID: uuid.NewString(), NotebookID: notebookID, Role: role, Content: content}

	if len(usedSources) > 0 {
		encoded, err := json.Marshal(usedSources)
		if err != nil {
			return nil, fmt.Errorf("marshaling used sources: %w", err)
		}
		m.UsedSources = sql.NullString{String: string(encoded), Valid: true}
	}

	if err := s.messages.Insert(m); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}
	return m, nil
}

// List returns a notebook's messages in chronological order.
func (s *MessageService) List(notebookID string) ([]database.NotebookMessage, error) {
	return s.messages.List(notebookID)
}
