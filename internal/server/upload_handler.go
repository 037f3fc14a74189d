// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/objectstore"
	"github.com/the-hive/internal/resource"
)

// UploadHandler serves the /uploads/* surface: multipart ingestion,
// document listing/lookup/deletion, and presigned download links.
type UploadHandler struct {
	uploads *resource.UploadService
	docs    *database.DocumentStore
	deletes *resource.DeleteDocumentService
	blobs   *objectstore.Gateway
	bucket  string
	audit   *database.AuditLogStore
}

// NewUploadHandler wires the dependencies the upload surface needs.
// audit may be nil to skip logging (e.g. in tests).
func NewUploadHandler(uploads *resource.UploadService, docs *database.DocumentStore,
	deletes *resource.DeleteDocumentService, blobs *objectstore.Gateway, bucket string,
	audit *database.AuditLogStore) *UploadHandler {
	return &UploadHandler{uploads: uploads, docs: docs, deletes: deletes, blobs: blobs, bucket: bucket, audit: audit}
}

const maxUploadMemory = 32 << 20 // 32MiB held in memory before multipart spills to disk

// HandleUploadFiles handles POST /uploads/files.
func (h *UploadHandler) HandleUploadFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	ownerID := ownerIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, apperr.Validationf("failed to parse multipart form: %v", err))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, apperr.Validationf("no files provided under the \"files\" field"))
		return
	}

	content := make(map[string][]byte, len(files))
	mimeTypes := make(map[string]string, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, apperr.Validationf("failed to open uploaded file %s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, apperr.Validationf("failed to read uploaded file %s: %v", fh.Filename, err))
			return
		}

		name := path.Base(fh.Filename)
		content[name] = data
		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		mimeTypes[name] = ct
	}

	results := h.uploads.UploadBatch(r.Context(), ownerID, content, mimeTypes)

	documents := make([]*database.Document, 0, len(results))
	var failed []string
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Filename+": "+res.Err.Error())
			continue
		}
		documents = append(documents, res.Document)
	}

	audit(h.audit, r, database.AuditActionUpload, fmt.Sprintf("uploaded %d file(s), %d failed", len(documents), len(failed)))

	body := map[string]interface{}{
		"documents": documents,
		"message":   "upload processed",
	}
	if len(failed) > 0 {
		body["failed_uploads"] = failed
	}
	writeJSON(w, http.StatusOK, body)
}

// HandleListDocuments handles GET /uploads/documents.
func (h *UploadHandler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerIDFromContext(r.Context())
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	docs, count, err := h.docs.List(ownerID, skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": count})
}

// HandleGetDocument handles GET /uploads/documents/{id}.
func (h *UploadHandler) HandleGetDocument(w http.ResponseWriter, r *http.Request, id string) {
	ownerID := ownerIDFromContext(r.Context())
	doc, err := h.docs.GetByID(id, ownerID)
	if err != nil {
		writeError(w, apperr.NotFoundf("document %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleDeleteDocument handles DELETE /uploads/documents/{id}.
func (h *UploadHandler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	ownerID := ownerIDFromContext(r.Context())
	if err := h.deletes.Delete(r.Context(), id, ownerID); err != nil {
		writeError(w, err)
		return
	}
	audit(h.audit, r, database.AuditActionDelete, "deleted document "+id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "document deleted", "document_id": id})
}

// HandleDeleteDocuments handles DELETE /uploads/documents (batch, body: [id,...]).
func (h *UploadHandler) HandleDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerIDFromContext(r.Context())
	var ids []string
	if err := decodeJSON(r, &ids); err != nil {
		writeError(w, apperr.Validationf("invalid request body: %v", err))
		return
	}

	deleted := 0
	var failed []string
	for _, id := range ids {
		if err := h.deletes.Delete(r.Context(), id, ownerID); err != nil {
			failed = append(failed, id)
			continue
		}
		deleted++
	}

	body := map[string]interface{}{"deleted_count": deleted}
	if len(failed) > 0 {
		body["failed_deletions"] = failed
	}
	writeJSON(w, http.StatusOK, body)
}

// HandlePresign handles GET /uploads/presign?key&expires_minutes.
func (h *UploadHandler) HandlePresign(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, apperr.Validationf("key is required"))
		return
	}
	ownerID := ownerIDFromContext(r.Context())
	if !strings.HasPrefix(key, ownerID+"/") {
		writeError(w, apperr.NotFoundf("object %s not found", key))
		return
	}

	minutes := 15
	if v := r.URL.Query().Get("expires_minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			minutes = n
		}
	}
	if minutes < 1 || minutes > 1440 {
		writeError(w, apperr.Validationf("expires_minutes must be within [1, 1440]"))
		return
	}

	url, err := h.blobs.PresignGet(r.Context(), key, time.Duration(minutes)*time.Minute)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url, "bucket": h.bucket, "key": key})
}
