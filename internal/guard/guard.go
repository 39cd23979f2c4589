// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package guard provides the single-flight submission guard: at most one
// completion request may be outstanding at a time. The guard is a
// component constructed in main and injected into the surfaces that
// submit, not ambient package state, so tests can hold their own instance.
package guard

import "sync"

// SubmitGuard is an intentionally coarse in-flight flag: one per process,
// not per conversation. A second submission while one is in flight is a
// debounced no-op, not a queued request.
type SubmitGuard struct {
	mu       sync.Mutex
	inFlight bool
	logf     func(format string, args ...any)
}

// New creates a guard. logf receives the debounce log line; nil disables
// logging (used in tests).
func New(logf func(format string, args ...any)) *SubmitGuard {
	return &SubmitGuard{logf: logf}
}

// TryAcquire attempts to start a submission. It returns true when the
// caller now owns the in-flight slot and must Release it on every path,
// success or failure. When a submission is already outstanding it logs and
// returns false; the caller treats that as a silent no-op.
func (g *SubmitGuard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight {
		if g.logf != nil {
			g.logf("submit ignored: a completion request is already in flight")
		}
		return false
	}
	g.inFlight = true
	return true
}

// Release clears the in-flight flag. Safe to call when not held.
func (g *SubmitGuard) Release() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// InFlight reports whether a submission is outstanding.
func (g *SubmitGuard) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}
