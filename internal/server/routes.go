// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import "net/http"

// Handlers bundles every handler routes.go needs to wire the surface.
type Handlers struct {
	Upload         *UploadHandler
	Source         *SourceHandler
	Notebook       *NotebookHandler
	NotebookSource *NotebookSourceHandler
	Message        *MessageHandler
	Search         *SearchHandler
	Superuser      *SuperuserHandler
}

// NewMux builds the full HTTP surface described by the endpoint table:
// upload/document/source/notebook/membership/message CRUD, the search
// tool, and the superuser reconciliation routes, all authenticated by
// authMiddleware and the superuser routes additionally gated by
// SuperuserMiddleware.
func NewMux(h Handlers, authMiddleware func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /uploads/files", h.Upload.HandleUploadFiles)
	mux.HandleFunc("GET /uploads/documents", h.Upload.HandleListDocuments)
	mux.HandleFunc("DELETE /uploads/documents", h.Upload.HandleDeleteDocuments)
	mux.HandleFunc("GET /uploads/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.Upload.HandleGetDocument(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /uploads/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.Upload.HandleDeleteDocument(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /uploads/presign", h.Upload.HandlePresign)

	mux.HandleFunc("POST /sources", h.Source.HandleCreate)
	mux.HandleFunc("GET /sources", h.Source.HandleList)
	mux.HandleFunc("GET /sources/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.Source.HandleGet(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /sources/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.Source.HandleDelete(w, r, r.PathValue("id"))
	})

	mux.HandleFunc("POST /notebooks", h.Notebook.HandleCreate)
	mux.HandleFunc("GET /notebooks", h.Notebook.HandleList)
	mux.HandleFunc("GET /notebooks/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.Notebook.HandleGet(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("PUT /notebooks/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.Notebook.HandleUpdate(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /notebooks/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.Notebook.HandleDelete(w, r, r.PathValue("id"))
	})

	mux.HandleFunc("POST /notebooks/{nb}/sources", func(w http.ResponseWriter, r *http.Request) {
		h.NotebookSource.HandleAdd(w, r, r.PathValue("nb"))
	})
	mux.HandleFunc("GET /notebooks/{nb}/sources", func(w http.ResponseWriter, r *http.Request) {
		h.NotebookSource.HandleList(w, r, r.PathValue("nb"))
	})
	mux.HandleFunc("PUT /notebooks/{nb}/sources/{membershipID}", func(w http.ResponseWriter, r *http.Request) {
		h.NotebookSource.HandleReorder(w, r, r.PathValue("membershipID"))
	})
	mux.HandleFunc("DELETE /notebooks/{nb}/sources/{sourceID}", func(w http.ResponseWriter, r *http.Request) {
		h.NotebookSource.HandleRemove(w, r, r.PathValue("nb"), r.PathValue("sourceID"))
	})

	mux.HandleFunc("POST /notebooks/{nb}/messages", func(w http.ResponseWriter, r *http.Request) {
		h.Message.HandleAppend(w, r, r.PathValue("nb"))
	})
	mux.HandleFunc("GET /notebooks/{nb}/messages", func(w http.ResponseWriter, r *http.Request) {
		h.Message.HandleList(w, r, r.PathValue("nb"))
	})

	mux.HandleFunc("GET /search/documents", h.Search.HandleSearchDocuments)
	mux.HandleFunc("GET /search/health", h.Search.HandleSearchHealth)

	superuserMux := http.NewServeMux()
	superuserMux.HandleFunc("GET /uploads/consistency-check", h.Superuser.HandleConsistencyCheck)
	superuserMux.HandleFunc("POST /uploads/cleanup/orphaned-files", h.Superuser.HandleCleanupOrphanedFiles)
	superuserMux.HandleFunc("POST /uploads/cleanup/orphaned-records", h.Superuser.HandleCleanupOrphanedRecords)
	superuserMux.HandleFunc("POST /uploads/cleanup/full", h.Superuser.HandleCleanupFull)
	superuserMux.HandleFunc("GET /audit-logs", h.Superuser.HandleAuditLogs)
	mux.Handle("/uploads/consistency-check", SuperuserMiddleware(superuserMux))
	mux.Handle("/uploads/cleanup/", SuperuserMiddleware(superuserMux))
	mux.Handle("/audit-logs", SuperuserMiddleware(superuserMux))

	top := http.NewServeMux()
	top.Handle("/", authMiddleware(mux))
	return top
}
