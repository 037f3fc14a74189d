// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"
	"strconv"

	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/reconcile"
)

// SuperuserHandler serves the superuser-gated consistency and cleanup
// surface. Every route here is wrapped in SuperuserMiddleware.
type SuperuserHandler struct {
	sweeper *reconcile.Sweeper
	audit   *database.AuditLogStore
}

// NewSuperuserHandler wires the sweep dependency. audit may be nil to
// skip logging (e.g. in tests).
func NewSuperuserHandler(sweeper *reconcile.Sweeper, audit *database.AuditLogStore) *SuperuserHandler {
	return &SuperuserHandler{sweeper: sweeper, audit: audit}
}

// HandleConsistencyCheck handles GET /uploads/consistency-check.
func (h *SuperuserHandler) HandleConsistencyCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweeper.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	lastRun, err := h.sweeper.LastRunAt()
	if err != nil {
		writeError(w, err)
		return
	}
	body := map[string]interface{}{
		"is_consistent":    report.IsConsistent,
		"orphaned_blobs":   report.OrphanedBlobs,
		"orphaned_records": report.OrphanedRecords,
	}
	if !lastRun.IsZero() {
		body["last_reconcile_at"] = lastRun
	}
	writeJSON(w, http.StatusOK, body)
}

func dryRunParam(r *http.Request) bool {
	v := r.URL.Query().Get("dry_run")
	return v != "false" && v != "0"
}

// HandleCleanupOrphanedFiles handles POST /uploads/cleanup/orphaned-files.
func (h *SuperuserHandler) HandleCleanupOrphanedFiles(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.CleanOrphanedBlobs(r.Context(), dryRunParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleCleanupOrphanedRecords handles POST /uploads/cleanup/orphaned-records.
func (h *SuperuserHandler) HandleCleanupOrphanedRecords(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.CleanOrphanedRecords(r.Context(), dryRunParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleCleanupFull handles POST /uploads/cleanup/full.
func (h *SuperuserHandler) HandleCleanupFull(w http.ResponseWriter, r *http.Request) {
	dryRun := dryRunParam(r)
	result, err := h.sweeper.RunFull(r.Context(), dryRun)
	if err != nil {
		writeError(w, err)
		return
	}
	if !dryRun {
		audit(h.audit, r, database.AuditActionReconcile, "ran full cleanup sweep")
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleAuditLogs handles GET /audit-logs?limit&action.
func (h *SuperuserHandler) HandleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "audit logging is not enabled"})
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	logs, err := h.audit.GetRecentLogs(limit, r.URL.Query().Get("action"), "")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}
