// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package apperr defines the typed error taxonomy shared by every
// component of the notebook service, so the HTTP layer can map a
// failure to a status code in one place instead of scattering
// w.WriteHeader calls through every handler.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way the rest of the system needs to
// react to it: retry, surface to the caller, or page an operator.
type Kind int

const (
	// Internal covers anything that doesn't fit a more specific kind.
	Internal Kind = iota
	// Validation means the caller sent something the system will never accept.
	Validation
	// NotFound means the resource doesn't exist for this owner.
	NotFound
	// Conflict means a concurrent or duplicate mutation collided.
	Conflict
	// RateLimited means the caller is over their concurrency or quota budget.
	RateLimited
	// ExternalUnavailable means a downstream collaborator (blob, vector, bus) is down.
	ExternalUnavailable
	// Inconsistent means cross-store state has drifted and needs reconciliation.
	Inconsistent
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case RateLimited:
		return "rate_limited"
	case ExternalUnavailable:
		return "external_unavailable"
	case Inconsistent:
		return "inconsistent"
	default:
		return "internal"
	}
}

// Error is the typed error carried across package boundaries.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap creates an Error of the given kind around an existing error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Validationf builds a Validation-kind error with a formatted message.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: Validation, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a NotFound-kind error with a formatted message.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflictf builds a Conflict-kind error with a formatted message.
func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: Conflict, Msg: fmt.Sprintf(format, args...)}
}

// RateLimitedf builds a RateLimited-kind error with a formatted message.
func RateLimitedf(format string, args ...interface{}) *Error {
	return &Error{Kind: RateLimited, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind of err, defaulting to Internal when err
// isn't (or doesn't wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
