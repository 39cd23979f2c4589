// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// TURN TESTS
// =============================================================================

func TestTurn_Validate(t *testing.T) {
	tests := []struct {
		name    string
		turn    Turn
		wantErr error
	}{
		{
			name: "valid user turn",
			turn: Turn{Role: RoleUser, Content: "hello"},
		},
		{
			name: "valid assistant turn",
			turn: Turn{Role: RoleAssistant, Content: "hi"},
		},
		{
			name:    "empty content",
			turn:    Turn{Role: RoleUser, Content: ""},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "unknown role",
			turn:    Turn{Role: Role("system"), Content: "x"},
			wantErr: ErrInvalidRole,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.turn.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestTurn_Preview(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := Turn{Role: RoleUser, Content: long}.Preview(10)
	if len([]rune(got)) != 10 {
		t.Errorf("Preview(10) length = %d, want 10", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Preview(10) = %q, want ... suffix", got)
	}

	// Unicode must not be split mid-rune
	got = Turn{Role: RoleUser, Content: "héllo wörld, héllo"}.Preview(8)
	if !strings.HasPrefix(got, "héllo") {
		t.Errorf("Preview(8) = %q, want héllo prefix", got)
	}
}

func TestRole_DisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" {
		t.Errorf("RoleUser.DisplayName() = %q", RoleUser.DisplayName())
	}
	if RoleAssistant.DisplayName() != "Assistant" {
		t.Errorf("RoleAssistant.DisplayName() = %q", RoleAssistant.DisplayName())
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AppendAndClear(t *testing.T) {
	c := NewConversation(DefaultMaxTurns)

	if !c.IsEmpty() {
		t.Fatal("new conversation should be empty")
	}

	if err := c.Append(NewUserTurn("Hi")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}

	c.Clear()
	if !c.IsEmpty() {
		t.Error("Clear() should empty the conversation")
	}
}

func TestConversation_AppendRejectsEmptyContent(t *testing.T) {
	c := NewConversation(DefaultMaxTurns)
	err := c.Append(Turn{Role: RoleUser, Content: ""})
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Append(empty) = %v, want ErrEmptyContent", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after rejected append, want 0", c.Len())
	}
}

func TestConversation_AppendRefusedAtMax(t *testing.T) {
	c := NewConversation(MinTurnLimit)
	for i := 0; i < MinTurnLimit; i++ {
		if err := c.Append(NewUserTurn("msg")); err != nil {
			t.Fatalf("Append() #%d error = %v", i, err)
		}
	}

	if !c.IsFull() {
		t.Fatal("conversation should be full")
	}

	err := c.Append(NewUserTurn("one too many"))
	if !errors.Is(err, ErrConversationFull) {
		t.Fatalf("Append() at max = %v, want ErrConversationFull", err)
	}
	// Length unchanged, nothing dropped
	if c.Len() != MinTurnLimit {
		t.Errorf("Len() = %d after refused append, want %d", c.Len(), MinTurnLimit)
	}
}

func TestConversation_ReplaceAll(t *testing.T) {
	c := NewConversation(DefaultMaxTurns)
	c.Append(NewUserTurn("Hi"))

	replacement := []Turn{
		{Role: RoleUser, Content: "Hi"},
		{Role: RoleAssistant, Content: "Hello"},
	}
	c.ReplaceAll(replacement)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	// Mutating the source slice must not affect the conversation
	replacement[1].Content = "mutated"
	turns := c.Turns()
	if turns[1].Content != "Hello" {
		t.Errorf("ReplaceAll aliased caller slice: got %q", turns[1].Content)
	}
}

func TestConversation_ConsecutiveAssistantTurnsAllowed(t *testing.T) {
	// Role alternation is unenforced: the backend may return several
	// assistant turns per call.
	c := NewConversation(DefaultMaxTurns)
	if err := c.Append(NewAssistantTurn("one")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := c.Append(NewAssistantTurn("two")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestConversation_TurnsReturnsCopy(t *testing.T) {
	c := NewConversation(DefaultMaxTurns)
	c.Append(NewUserTurn("Hi"))

	snapshot := c.Turns()
	c.Append(NewAssistantTurn("Hello"))

	if len(snapshot) != 1 {
		t.Errorf("snapshot length = %d, want 1", len(snapshot))
	}
}

func TestNewConversation_BoundsFallback(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"below range", 5, DefaultMaxTurns},
		{"above range", 100, DefaultMaxTurns},
		{"lower edge", MinTurnLimit, MinTurnLimit},
		{"upper edge", MaxTurnLimit, MaxTurnLimit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewConversation(tc.in).MaxTurns(); got != tc.want {
				t.Errorf("NewConversation(%d).MaxTurns() = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

// =============================================================================
// MODEL REGISTRY TESTS
// =============================================================================

func TestGetModelInfo(t *testing.T) {
	m, ok := GetModelInfo(DefaultModel)
	if !ok {
		t.Fatalf("GetModelInfo(%q) should succeed", DefaultModel)
	}
	if m.ID != "gpt-4-turbo-preview" {
		t.Errorf("default model ID = %q", m.ID)
	}

	for _, id := range []string{
		"gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo",
		"claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-haiku-20240307",
	} {
		if _, ok := GetModelInfo(id); !ok {
			t.Errorf("GetModelInfo(%q) should succeed", id)
		}
	}

	if _, ok := GetModelInfo("nonexistent-model"); ok {
		t.Error("GetModelInfo(nonexistent-model) should return false")
	}
}

func TestModels_HaveRequiredFields(t *testing.T) {
	for id, m := range Models {
		t.Run(id, func(t *testing.T) {
			if m.ID == "" {
				t.Error("ModelInfo.ID should not be empty")
			}
			if m.Name == "" {
				t.Error("ModelInfo.Name should not be empty")
			}
			if m.MaxTokens <= 0 {
				t.Error("ModelInfo.MaxTokens should be positive")
			}
		})
	}
}
