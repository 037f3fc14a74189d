// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import "context"

type contextKey int

const (
	ownerIDKey contextKey = iota
	superuserKey
)

func ownerIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ownerIDKey).(string)
	return v
}

func isSuperuser(ctx context.Context) bool {
	v, _ := ctx.Value(superuserKey).(bool)
	return v
}
