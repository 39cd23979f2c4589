// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// DefaultMaxTurns bounds conversation length when no explicit limit is
// configured. The valid configurable range is MinTurnLimit..MaxTurnLimit.
const (
	DefaultMaxTurns = 20
	MinTurnLimit    = 10
	MaxTurnLimit    = 20
)

// ErrConversationFull is returned by Append when the conversation already
// holds the maximum number of turns. History is never silently dropped or
// truncated; the caller surfaces this to the user instead.
var ErrConversationFull = errors.New("conversation limit reached")

// Conversation is an ordered, append-only (until cleared) log of turns.
// Insertion order is chronological order. The zero value is not usable;
// construct with NewConversation.
//
// Conversation is not safe for concurrent use. In the TUI it is owned by
// the single event loop, which is the only writer.
type Conversation struct {
	turns    []Turn
	maxTurns int
}

// NewConversation creates an empty conversation bounded by maxTurns.
// Values outside the supported range fall back to DefaultMaxTurns.
func NewConversation(maxTurns int) *Conversation {
	if maxTurns < MinTurnLimit || maxTurns > MaxTurnLimit {
		maxTurns = DefaultMaxTurns
	}
	return &Conversation{
		turns:    make([]Turn, 0, maxTurns),
		maxTurns: maxTurns,
	}
}

// =============================================================================
// MUTATION
// =============================================================================

// Append adds one turn at the end. It refuses empty turns and refuses to
// grow past the configured maximum.
func (c *Conversation) Append(t Turn) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if len(c.turns) >= c.maxTurns {
		return fmt.Errorf("%w (max %d turns); clear the conversation to continue", ErrConversationFull, c.maxTurns)
	}
	c.turns = append(c.turns, t)
	return nil
}

// ReplaceAll atomically swaps the whole sequence. Used when the backend
// returns the accepted context plus new reply turns, so an observer never
// sees a partially-updated conversation. Turns beyond the configured
// maximum are kept: the bound applies to user appends, and the server-echoed
// context already passed through Append.
func (c *Conversation) ReplaceAll(turns []Turn) {
	replacement := make([]Turn, len(turns))
	copy(replacement, turns)
	c.turns = replacement
}

// Clear resets the conversation to the empty sequence.
func (c *Conversation) Clear() {
	c.turns = c.turns[:0]
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Turns returns a copy of the turn sequence. Callers may hold the copy
// across a pending network call without observing later mutation.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// IsEmpty returns true when the conversation has no turns.
func (c *Conversation) IsEmpty() bool {
	return len(c.turns) == 0
}

// IsFull returns true when Append would be refused.
func (c *Conversation) IsFull() bool {
	return len(c.turns) >= c.maxTurns
}

// MaxTurns returns the configured bound.
func (c *Conversation) MaxTurns() int {
	return c.maxTurns
}

// Last returns the most recent turn, or false when empty.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// EstimateTokens sums the rough token estimates of all turns.
func (c *Conversation) EstimateTokens() int {
	total := 0
	for _, t := range c.turns {
		total += t.EstimateTokens()
	}
	return total
}
