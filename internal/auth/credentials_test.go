// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())

	require.NoError(t, store.Set("tok-abc123"))

	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc123", got)

	// A second store over the same directory simulates a process restart.
	reopened := NewFileTokenStore(store.dir)
	got, err = reopened.Get()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc123", got, "token must survive restart")
}

func TestFileTokenStore_AbsentReturnsEmpty(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())

	got, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, store.Exists())
}

func TestFileTokenStore_SetEmptyClears(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())

	require.NoError(t, store.Set("tok"))
	require.True(t, store.Exists())

	require.NoError(t, store.Set(""))
	assert.False(t, store.Exists())

	got, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileTokenStore_ClearIsIdempotent(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())
	require.NoError(t, store.Clear())
	require.NoError(t, store.Set("tok"))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	assert.False(t, store.Exists())
}

func TestFileTokenStore_Overwrite(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())

	require.NoError(t, store.Set("first"))
	require.NoError(t, store.Set("second"))

	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestFileTokenStore_TokenSealedOnDisk(t *testing.T) {
	dir := t.TempDir()
	store := NewFileTokenStore(dir)
	require.NoError(t, store.Set("tok-plaintext-should-not-appear"))

	raw, err := os.ReadFile(filepath.Join(dir, "token"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok-plaintext-should-not-appear")
	assert.Contains(t, string(raw), "ENC:")
}

func TestFileTokenStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	store := NewFileTokenStore(dir)
	require.NoError(t, store.Set("tok"))

	for _, name := range []string{"token", "master.key", "master.salt"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
	}
}
