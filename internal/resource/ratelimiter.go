// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package resource implements the Resource Service: the CRUD and
// cascade-delete logic for Documents, Sources, Notebooks,
// NotebookSources, and Messages, wired to the relational store, the
// Object Store Gateway, and the Event Bus Publisher.
package resource

// RateLimiter gates how many documents a single owner may have in
// flight at once. Measured live from the DB, not a sidecar counter —
// see DBRateLimiter.
type RateLimiter interface {
	CheckProcessingLimit(ownerID string) (bool, error)
}

// ProcessingCounter is satisfied by database.DocumentStore.
type ProcessingCounter interface {
	CountProcessing(ownerID string) (int, error)
}

// DBRateLimiter counts Document rows in status=processing for an
// owner and compares against a configured cap. Brief overshoot by one
// concurrent request is accepted; this is a fairness gate, not a lock.
type DBRateLimiter struct {
	counter ProcessingCounter
	cap     int
}

// NewDBRateLimiter returns a RateLimiter backed by counter, permitting
// up to cap concurrent processing documents per owner.
func NewDBRateLimiter(counter ProcessingCounter, cap int) *DBRateLimiter {
	if cap <= 0 {
		cap = 5
	}
	return &DBRateLimiter{counter: counter, cap: cap}
}

// CheckProcessingLimit reports whether ownerID may start another upload.
func (l *DBRateLimiter) CheckProcessingLimit(ownerID string) (bool, error) {
	n, err := l.counter.CountProcessing(ownerID)
	if err != nil {
		return false, err
	}
	return n < l.cap, nil
}
