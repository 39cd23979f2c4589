// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatterm/internal/backend"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{
		Model: "gpt-3.5-turbo", TurnCount: 1, Prompt: "Hi",
		Outcome: OutcomeOK, StatusCode: http.StatusOK, LatencyMS: 420,
	}))
	require.NoError(t, s.Record(ctx, Entry{
		Model: "gpt-4", TurnCount: 3, Prompt: "again",
		Outcome: OutcomeHTTP, StatusCode: http.StatusInternalServerError, LatencyMS: 10,
		CreatedAt: time.Now().Add(time.Second),
	}))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, "gpt-4", entries[0].Model)
	assert.Equal(t, OutcomeHTTP, entries[0].Outcome)
	assert.Equal(t, http.StatusInternalServerError, entries[0].StatusCode)
	assert.Equal(t, "Hi", entries[1].Prompt)
	assert.Equal(t, int64(420), entries[1].LatencyMS)
}

func TestStore_RecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Entry{Model: "m", Outcome: OutcomeOK}))
	}
	entries, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestStore_Stats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{Model: "m", Outcome: OutcomeOK}))
	require.NoError(t, s.Record(ctx, Entry{Model: "m", Outcome: OutcomeOK}))
	require.NoError(t, s.Record(ctx, Entry{Model: "m", Outcome: OutcomeHTTP}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Total)
	assert.Equal(t, int64(2), st.Succeeded)
	assert.Equal(t, int64(1), st.Failed)
}

func TestStore_Clear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{Model: "m", Outcome: OutcomeOK}))
	require.NoError(t, s.Clear(ctx))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Total)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil is ok", nil, OutcomeOK},
		{"http error", &backend.Error{Kind: backend.KindHTTP, StatusCode: 500}, OutcomeHTTP},
		{"upstream error", &backend.Error{Kind: backend.KindUpstream, StatusCode: 502}, OutcomeUpstream},
		{"empty response", backend.ErrEmptyResponse, OutcomeEmpty},
		{"anything else", errors.New("boom"), OutcomeOther},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}
