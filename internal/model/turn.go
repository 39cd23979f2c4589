// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Valid reports whether the role is one the backend accepts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn validation errors.
var (
	ErrEmptyContent = errors.New("turn content is empty")
	ErrInvalidRole  = errors.New("turn role must be user or assistant")
)

// Turn is a single message in a conversation. Turns are immutable once
// created; ordering within a Conversation is chronological, oldest first,
// and defines the context sent to the backend.
type Turn struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewTurn creates a turn with a generated ID and the current timestamp.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserTurn creates a user turn.
func NewUserTurn(content string) Turn {
	return NewTurn(RoleUser, content)
}

// NewAssistantTurn creates an assistant turn.
func NewAssistantTurn(content string) Turn {
	return NewTurn(RoleAssistant, content)
}

// Validate checks the structural rules for a turn: non-empty content and a
// recognized role. Role alternation is deliberately NOT checked anywhere;
// the backend may return zero or several assistant turns per call.
func (t Turn) Validate() error {
	if len(t.Content) == 0 {
		return ErrEmptyContent
	}
	if !t.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// Preview returns a truncated preview of the turn content.
// Uses rune-based truncation to handle Unicode correctly.
func (t Turn) Preview(maxLen int) string {
	runes := []rune(t.Content)
	if len(runes) <= maxLen {
		return t.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// EstimateTokens gives a rough token estimate for the turn content.
// Uses the approximation of ~4 characters per token.
func (t Turn) EstimateTokens() int {
	return (len(t.Content) + 3) / 4
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique turn ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "turn_" + hex.EncodeToString(bytes)
}
