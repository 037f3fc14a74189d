// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/the-hive/internal/database"
)

// clientIP extracts the caller's address, preferring the proxy headers
// a load balancer sets over the raw connection address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// audit logs an action with the caller's owner id; a nil store is a no-op
// so handlers can be exercised in tests without wiring an audit log.
func audit(logs *database.AuditLogStore, r *http.Request, action database.AuditAction, details string) {
	if logs == nil {
		return
	}
	_ = logs.LogAction(clientIP(r), action, details, ownerIDFromContext(r.Context()))
}
