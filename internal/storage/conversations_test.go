// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatterm/internal/model"
)

func sampleTurns() []model.Turn {
	return []model.Turn{
		model.NewUserTurn("What is a monad?"),
		model.NewAssistantTurn("A monoid in the category of endofunctors."),
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := NewStore(t.TempDir(), 0)

	id, err := store.Save(sampleTurns(), "gpt-3.5-turbo")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	turns, meta, err := store.Load(id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "What is a monad?", turns[0].Content)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)

	assert.Equal(t, id, meta.ID)
	assert.Equal(t, "What is a monad?", meta.Title)
	assert.Equal(t, "gpt-3.5-turbo", meta.Model)
	assert.Equal(t, 2, meta.TurnCount)
}

func TestStore_SaveRefusesEmpty(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	_, err := store.Save(nil, "gpt-3.5-turbo")
	assert.Error(t, err)
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	_, _, err := store.Load("no-such-id")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := NewStore(t.TempDir(), 0)

	// List on a missing directory is an empty archive
	metas, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, metas)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.Save(sampleTurns(), "gpt-3.5-turbo")
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(5 * time.Millisecond) // Distinct CreatedAt
	}

	metas, err = store.List()
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, ids[2], metas[0].ID, "newest first")
	assert.Equal(t, ids[0], metas[2].ID)
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	id, err := store.Save(sampleTurns(), "gpt-3.5-turbo")
	require.NoError(t, err)

	require.NoError(t, store.Delete(id))
	_, _, err = store.Load(id)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	assert.ErrorIs(t, store.Delete(id), ErrConversationNotFound)
}

func TestStore_EvictsOldestBeyondLimit(t *testing.T) {
	store := NewStore(t.TempDir(), 2)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.Save(sampleTurns(), "gpt-3.5-turbo")
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(5 * time.Millisecond)
	}

	metas, err := store.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)

	_, _, err = store.Load(ids[0])
	assert.ErrorIs(t, err, ErrConversationNotFound, "oldest should be evicted")
}

func TestStore_Clear(t *testing.T) {
	store := NewStore(t.TempDir(), 0)
	for i := 0; i < 2; i++ {
		_, err := store.Save(sampleTurns(), "gpt-3.5-turbo")
		require.NoError(t, err)
	}

	require.NoError(t, store.Clear())
	metas, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestTitleFor_TruncatesLongFirstLine(t *testing.T) {
	long := model.NewUserTurn("this is a very long first message that should be truncated for the listing title because it exceeds the limit")
	title := titleFor([]model.Turn{long})
	assert.LessOrEqual(t, len([]rune(title)), titleLength)
}
