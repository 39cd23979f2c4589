// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists saved conversations as one JSON file each under
// the data directory. The archive is bounded; the oldest conversations are
// evicted when the limit is exceeded.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// ErrConversationNotFound indicates the requested ID has no file.
var ErrConversationNotFound = errors.New("conversation not found")

// StoredTurn is the persisted shape of one turn.
type StoredTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// StoredConversation is the on-disk document.
type StoredConversation struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Model     string       `json:"model"`
	CreatedAt time.Time    `json:"created_at"`
	Turns     []StoredTurn `json:"turns"`
}

// Meta is the listing view of a stored conversation.
type Meta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	TurnCount int       `json:"turn_count"`
}

// =============================================================================
// STORE
// =============================================================================

// titleLength bounds the auto-generated title.
const titleLength = 50

// Store is the conversation archive.
type Store struct {
	// BaseDir is the archive directory (~/.chatterm/conversations).
	BaseDir string
	// MaxConversations bounds the archive; 0 means unlimited.
	MaxConversations int
}

// NewStore creates an archive rooted at baseDir.
func NewStore(baseDir string, maxConversations int) *Store {
	return &Store{BaseDir: baseDir, MaxConversations: maxConversations}
}

// DefaultDir returns the default archive location.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".chatterm", "conversations")
	}
	return filepath.Join(home, ".chatterm", "conversations")
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// Save archives the turns under a fresh ID and returns it. The title is
// derived from the first user turn. Empty conversations are not saved.
func (s *Store) Save(turns []model.Turn, modelID string) (string, error) {
	if len(turns) == 0 {
		return "", errors.New("refusing to save an empty conversation")
	}

	doc := StoredConversation{
		ID:        uuid.NewString(),
		Title:     titleFor(turns),
		Model:     modelID,
		CreatedAt: time.Now(),
		Turns:     make([]StoredTurn, len(turns)),
	}
	for i, t := range turns {
		doc.Turns[i] = StoredTurn{
			Role:      t.Role.String(),
			Content:   t.Content,
			Timestamp: t.Timestamp,
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode conversation: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFileWithDir(s.path(doc.ID), data, 0600, 0700); err != nil {
		return "", fmt.Errorf("failed to write conversation: %w", err)
	}

	if err := s.enforceLimit(); err != nil {
		return doc.ID, fmt.Errorf("saved, but eviction failed: %w", err)
	}
	return doc.ID, nil
}

// Load reads a stored conversation back into turns.
func (s *Store) Load(id string) ([]model.Turn, *Meta, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	var doc StoredConversation
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse conversation %s: %w", id, err)
	}

	turns := make([]model.Turn, len(doc.Turns))
	for i, st := range doc.Turns {
		turns[i] = model.Turn{
			Role:      model.Role(st.Role),
			Content:   st.Content,
			Timestamp: st.Timestamp,
		}
	}
	meta := &Meta{
		ID:        doc.ID,
		Title:     doc.Title,
		Model:     doc.Model,
		CreatedAt: doc.CreatedAt,
		TurnCount: len(doc.Turns),
	}
	return turns, meta, nil
}

// List returns archive metadata, newest first. A missing directory is an
// empty archive, not an error.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var metas []Meta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		_, meta, err := s.Load(id)
		if err != nil {
			continue // Skip unreadable files
		}
		metas = append(metas, *meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

// Delete removes one stored conversation.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return err
}

// Clear removes the whole archive.
func (s *Store) Clear() error {
	metas, err := s.List()
	if err != nil {
		return err
	}
	for _, m := range metas {
		if err := s.Delete(m.ID); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// titleFor derives a listing title from the first user turn.
func titleFor(turns []model.Turn) string {
	for _, t := range turns {
		if t.Role == model.RoleUser {
			return util.TruncateWidth(util.FirstLine(t.Content), titleLength)
		}
	}
	return util.TruncateWidth(util.FirstLine(turns[0].Content), titleLength)
}

// enforceLimit evicts the oldest conversations beyond MaxConversations.
func (s *Store) enforceLimit() error {
	if s.MaxConversations <= 0 {
		return nil
	}
	metas, err := s.List()
	if err != nil {
		return err
	}
	for i := s.MaxConversations; i < len(metas); i++ {
		if err := s.Delete(metas[i].ID); err != nil {
			return err
		}
	}
	return nil
}
