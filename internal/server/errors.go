// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/the-hive/internal/apperr"
)

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeError maps a typed error to its corresponding HTTP status,
// centralizing what would otherwise be a w.WriteHeader call scattered
// through every handler. Ownership failures always surface as 404,
// never 403, per the existence-hiding policy.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.RateLimited:
		status = http.StatusTooManyRequests
	case apperr.ExternalUnavailable:
		status = http.StatusServiceUnavailable
	case apperr.Inconsistent:
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		log.Printf("server: internal error: %v", err)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("server: failed to encode response: %v", err)
	}
}
