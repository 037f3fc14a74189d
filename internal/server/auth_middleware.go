// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/the-hive/internal/auth"
)

// AuthMiddleware validates the bearer JWT on every request and stores
// the caller's owner id and superuser flag in the request context.
func AuthMiddleware(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
				return
			}

			ctx := context.WithValue(r.Context(), ownerIDKey, claims.OwnerID)
			ctx = context.WithValue(ctx, superuserKey, claims.Superuser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SuperuserMiddleware rejects any request whose verified claims don't
// carry the superuser flag, protecting the reconciliation endpoints.
func SuperuserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isSuperuser(r.Context()) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "superuser privileges required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
