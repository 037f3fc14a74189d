// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// MessageRole distinguishes the two sides of a notebook conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// NotebookMessage is one turn of a notebook's conversational history.
type NotebookMessage struct {
	ID          string
	NotebookID  string
	Role        MessageRole
	Content     string
	UsedSources sql.NullString // JSON list of source ids, nullable
	CreatedAt   time.Time
}

// MessageStore manages the notebook_messages table.
type MessageStore struct {
	db *sql.DB
}

// NewMessageStore creates a new message store.
func NewMessageStore(db *sql.DB) (*MessageStore, error) {
	store := &MessageStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize notebook_messages schema: %w", err)
	}
	return store, nil
}

func (s *MessageStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS notebook_messages (
		id TEXT PRIMARY KEY,
		notebook_id TEXT NOT NULL REFERENCES notebooks(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		used_sources TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_notebook_messages_notebook_id ON notebook_messages(notebook_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert appends a message.
func (s *MessageStore) Insert(m *NotebookMessage) error {
	_, err := s.db.Exec(
		`INSERT INTO notebook_messages (id, notebook_id, role, content, used_sources) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.NotebookID, m.Role, m.Content, m.UsedSources,
	)
	return err
}

// List returns a notebook's messages in chronological order.
func (s *MessageStore) List(notebookID string) ([]NotebookMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, notebook_id, role, content, used_sources, created_at FROM notebook_messages WHERE notebook_id = ? ORDER BY created_at ASC`,
		notebookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NotebookMessage
	for rows.Next() {
		var m NotebookMessage
		if err := rows.Scan(&m.ID, &m.NotebookID, &m.Role, &m.Content, &m.UsedSources, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
