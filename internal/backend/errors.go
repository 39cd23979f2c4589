// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the backend URL is missing from config.
	ErrNotConfigured = errors.New("backend URL not configured")

	// ErrEmptyContext indicates Complete was called with no turns. This is
	// a programmer error on the caller's side, checked defensively.
	ErrEmptyContext = errors.New("completion context is empty")

	// ErrInvalidTurn indicates a context turn with empty content or an
	// unrecognized role.
	ErrInvalidTurn = errors.New("completion context contains an invalid turn")

	// ErrEmptyResponse indicates the backend answered 200 with a null or
	// absent payload.
	ErrEmptyResponse = errors.New("backend returned an empty response")

	// ErrLoginFailed indicates the login endpoint rejected the credentials
	// or returned no token.
	ErrLoginFailed = errors.New("login failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ErrorKind classifies a completion failure.
type ErrorKind int

const (
	// KindHTTP: the transport-level HTTP status was not 200.
	KindHTTP ErrorKind = iota
	// KindUpstream: HTTP was 200 but the body's own status field was not.
	KindUpstream
)

// String returns the kind's display label.
func (k ErrorKind) String() string {
	switch k {
	case KindHTTP:
		return "backend HTTP error"
	case KindUpstream:
		return "remote error"
	default:
		return "backend error"
	}
}

// Error is a structured backend failure carrying the status code and any
// error message the backend embedded in the body.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

// Error formats the failure for status-line display. The status code is
// always present so "HTTP 500" class failures are recognizable at a glance.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Kind, e.StatusCode)
}

// Is allows errors.Is matching against another *Error by kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}
