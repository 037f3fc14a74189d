// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	AuditActionSearch    AuditAction = "SEARCH"
	AuditActionUpload    AuditAction = "UPLOAD"
	AuditActionDelete    AuditAction = "DELETE"
	AuditActionReconcile AuditAction = "RECONCILE"
)

// AuditLog represents an audit log entry.
type AuditLog struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ClientIP  string    `json:"client_ip"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// AuditLogStore manages audit logs.
type AuditLogStore struct {
	db *sql.DB
}

// NewAuditLogStore creates a new audit log store.
func NewAuditLogStore(db *sql.DB) (*AuditLogStore, error) {
	store := &AuditLogStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize audit logs schema: %w", err)
	}
	return store, nil
}

// initSchema creates the audit_logs table, adding owner_id the first
// time this runs against an older database that predates it.
func (s *AuditLogStore) initSchema() error {
	const baseSchema = `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		client_ip TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_client_ip ON audit_logs(client_ip);
	`
	if _, err := s.db.Exec(baseSchema); err != nil {
		return fmt.Errorf("failed to create base schema: %w", err)
	}

	rows, err := s.db.Query("PRAGMA table_info(audit_logs)")
	if err != nil {
		return fmt.Errorf("failed to query table info: %w", err)
	}
	defer rows.Close()

	hasOwnerID := false
	for rows.Next() {
		var cid int
		var name, dataType string
		var notNull, pk int
		var defaultValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return fmt.Errorf("failed to scan table info: %w", err)
		}
		if name == "owner_id" {
			hasOwnerID = true
			break
		}
	}

	if !hasOwnerID {
		if _, err := s.db.Exec("ALTER TABLE audit_logs ADD COLUMN owner_id TEXT"); err != nil {
			return fmt.Errorf("failed to add owner_id column: %w", err)
		}
		if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_logs_owner_id ON audit_logs(owner_id)"); err != nil {
			return fmt.Errorf("failed to create owner_id index: %w", err)
		}
	}

	return nil
}

// LogAction logs a new audit entry. ownerID is optional; when set it
// scopes GetRecentLogs for a non-superuser caller.
func (s *AuditLogStore) LogAction(clientIP string, action AuditAction, details string, ownerID string) error {
	_, err := s.db.Exec(
		"INSERT INTO audit_logs (timestamp, client_ip, action, details, owner_id) VALUES (?, ?, ?, ?, ?)",
		time.Now(), clientIP, string(action), details, ownerID,
	)
	return err
}

// GetRecentLogs returns the last N audit logs, sorted by timestamp
// descending, optionally filtered by action and/or owner.
func (s *AuditLogStore) GetRecentLogs(limit int, actionFilter string, ownerID string) ([]AuditLog, error) {
	var query string
	var args []interface{}

	if ownerID != "" {
		if actionFilter != "" {
			query = "SELECT id, timestamp, client_ip, action, details FROM audit_logs WHERE action = ? AND owner_id = ? ORDER BY timestamp DESC LIMIT ?"
			args = []interface{}{actionFilter, ownerID, limit}
		} else {
			query = "SELECT id, timestamp, client_ip, action, details FROM audit_logs WHERE owner_id = ? ORDER BY timestamp DESC LIMIT ?"
			args = []interface{}{ownerID, limit}
		}
	} else {
		if actionFilter != "" {
			query = "SELECT id, timestamp, client_ip, action, details FROM audit_logs WHERE action = ? ORDER BY timestamp DESC LIMIT ?"
			args = []interface{}{actionFilter, limit}
		} else {
			query = "SELECT id, timestamp, client_ip, action, details FROM audit_logs ORDER BY timestamp DESC LIMIT ?"
			args = []interface{}{limit}
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.ClientIP, &l.Action, &l.Details); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
