// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"sync"
)

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status is the session gate's three-state answer to "who is driving".
type Status int

const (
	// StatusUnknown: a verification round-trip is pending. The UI must
	// block submit/clear/logout while in this state.
	StatusUnknown Status = iota
	// StatusAuthenticated: show the conversation surface.
	StatusAuthenticated
	// StatusUnauthenticated: show the login surface.
	StatusUnauthenticated
)

// String returns the status display label.
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// =============================================================================
// VERIFIER
// =============================================================================

// Verifier asks the backend whether a token is still valid. Satisfied by
// *backend.Client.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// =============================================================================
// SESSION GATE
// =============================================================================

// Gate is the 3-state session controller. It starts Unknown, and returns
// to Unknown whenever the token changes (level-triggered re-verification,
// not a one-time check). Each Unknown cycle resolves exactly once, via one
// Check call, to Authenticated or Unauthenticated.
//
// Gate is safe for concurrent reads; Check and SetToken serialize writes.
type Gate struct {
	mu     sync.Mutex
	status Status
	token  string
}

// NewGate creates a gate in the Unknown state holding the given token
// (which may be empty).
func NewGate(token string) *Gate {
	return &Gate{status: StatusUnknown, token: token}
}

// Status returns the current gate state.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Token returns the token mirrored into the session.
func (g *Gate) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// SetToken installs a new token (possibly empty, on logout) and resets the
// gate to Unknown, restarting the verification cycle.
func (g *Gate) SetToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
	g.status = StatusUnknown
}

// Check resolves the current Unknown cycle with a single verifier
// round-trip and returns the resulting terminal state.
//
//   - Absent token: resolves Unauthenticated with NO network call.
//   - Verifier error: fail-closed to Unauthenticated; the error is
//     returned once for display, never retried automatically.
func (g *Gate) Check(ctx context.Context, v Verifier) (Status, error) {
	g.mu.Lock()
	token := g.token
	g.mu.Unlock()

	if token == "" {
		g.setStatus(StatusUnauthenticated)
		return StatusUnauthenticated, nil
	}

	ok, err := v.Verify(ctx, token)
	if err != nil {
		g.setStatus(StatusUnauthenticated)
		return StatusUnauthenticated, err
	}

	if ok {
		g.setStatus(StatusAuthenticated)
		return StatusAuthenticated, nil
	}
	g.setStatus(StatusUnauthenticated)
	return StatusUnauthenticated, nil
}

func (g *Gate) setStatus(s Status) {
	g.mu.Lock()
	g.status = s
	g.mu.Unlock()
}
