// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatterm/internal/model"
)

// newTestClient returns a client pointed at the test server with pacing
// effectively disabled.
func newTestClient(url string) *Client {
	return New(url).WithRateLimit(1000, 1000)
}

// =============================================================================
// VERIFY TESTS
// =============================================================================

func TestVerify_LoggedIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/backend/auth/user/current/", r.URL.Path)
		assert.Equal(t, "Token tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]bool{"is_logged_in": true})
	}))
	defer srv.Close()

	ok, err := newTestClient(srv.URL).Verify(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_NotLoggedIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"is_logged_in": false})
	}))
	defer srv.Close()

	ok, err := newTestClient(srv.URL).Verify(context.Background(), "stale")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ok, err := newTestClient(srv.URL).Verify(context.Background(), "tok")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestVerify_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	ok, err := newTestClient(srv.URL).Verify(context.Background(), "tok")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestVerify_NotConfigured(t *testing.T) {
	_, err := New("").Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/backend/auth/login/token/", r.URL.Path)
		// Login must not send a stale Authorization header
		assert.Empty(t, r.Header.Get("Authorization"))

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Username)
		assert.Equal(t, "s3cret", req.Password)

		json.NewEncoder(w).Encode(map[string]string{"token": "tok-issued"})
	}))
	defer srv.Close()

	token, err := newTestClient(srv.URL).Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok-issued", token)
}

func TestLogin_RejectedWithDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "invalid credentials"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestLogin_EmptyTokenIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": ""})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background(), "alice", "s3cret")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

// =============================================================================
// COMPLETE TESTS
// =============================================================================

func completionOK(reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": 200,
			"data": map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": reply}},
				},
			},
		})
	}
}

func TestComplete_HappyPath(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/backend/openai/chat/completions/", r.URL.Path)
		assert.Equal(t, "Token tok", r.Header.Get("Authorization"))

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "Hi", req.Messages[0].Content)

		completionOK("Hello")(w, r)
	}))
	defer srv.Close()

	ctx := []model.Turn{model.NewUserTurn("Hi")}
	got, err := newTestClient(srv.URL).Complete(context.Background(), "gpt-3.5-turbo", "tok", ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.RoleUser, got[0].Role)
	assert.Equal(t, "Hi", got[0].Content)
	assert.Equal(t, model.RoleAssistant, got[1].Role)
	assert.Equal(t, "Hello", got[1].Content)
	assert.Equal(t, int32(1), calls.Load())
}

func TestComplete_EmptyContextRejectedBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), "gpt-3.5-turbo", "tok", nil)
	assert.ErrorIs(t, err, ErrEmptyContext)
	assert.Equal(t, int32(0), calls.Load(), "no network call should be issued")
}

func TestComplete_InvalidTurnRejectedBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	ctx := []model.Turn{{Role: model.RoleUser, Content: ""}}
	_, err := newTestClient(srv.URL).Complete(context.Background(), "gpt-3.5-turbo", "tok", ctx)
	assert.ErrorIs(t, err, ErrInvalidTurn)
	assert.Equal(t, int32(0), calls.Load())
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "upstream exploded"})
	}))
	defer srv.Close()

	ctx := []model.Turn{model.NewUserTurn("Hi")}
	_, err := newTestClient(srv.URL).Complete(context.Background(), "gpt-3.5-turbo", "tok", ctx)
	require.Error(t, err)

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindHTTP, be.Kind)
	assert.Equal(t, http.StatusInternalServerError, be.StatusCode)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestComplete_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  502,
			"message": "model unavailable",
		})
	}))
	defer srv.Close()

	ctx := []model.Turn{model.NewUserTurn("Hi")}
	_, err := newTestClient(srv.URL).Complete(context.Background(), "gpt-3.5-turbo", "tok", ctx)
	require.Error(t, err)

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindUpstream, be.Kind)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestComplete_NullDataIsEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": 200, "data": nil})
	}))
	defer srv.Close()

	ctx := []model.Turn{model.NewUserTurn("Hi")}
	_, err := newTestClient(srv.URL).Complete(context.Background(), "gpt-3.5-turbo", "tok", ctx)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_CallerSliceUntouched(t *testing.T) {
	srv := httptest.NewServer(completionOK("Hello"))
	defer srv.Close()

	ctx := []model.Turn{model.NewUserTurn("Hi")}
	got, err := newTestClient(srv.URL).Complete(context.Background(), "gpt-3.5-turbo", "tok", ctx)
	require.NoError(t, err)

	require.Len(t, ctx, 1, "caller slice must keep its length")
	assert.Equal(t, "Hi", ctx[0].Content)
	require.Len(t, got, 2)

	// The extension must not share backing storage with the input in a way
	// that lets later appends clobber the caller's view.
	got[0].Content = "mutated"
	assert.Equal(t, "Hi", ctx[0].Content)
}

func TestComplete_MultipleChoicesAllAppended(t *testing.T) {
	// The backend may return several assistant turns per call; each one is
	// appended in order with no alternation check.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": 200,
			"data": map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": "first"}},
					{"message": map[string]string{"role": "assistant", "content": "second"}},
				},
			},
		})
	}))
	defer srv.Close()

	ctx := []model.Turn{model.NewUserTurn("Hi")}
	got, err := newTestClient(srv.URL).Complete(context.Background(), "gpt-3.5-turbo", "tok", ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[1].Content)
	assert.Equal(t, "second", got[2].Content)
}

// =============================================================================
// ERROR FORMAT TESTS
// =============================================================================

func TestError_Format(t *testing.T) {
	e := &Error{Kind: KindHTTP, StatusCode: 500, Message: "oops"}
	assert.Equal(t, "backend HTTP error: 500 oops", e.Error())

	e = &Error{Kind: KindUpstream, StatusCode: 502}
	assert.True(t, strings.Contains(e.Error(), "502"))

	assert.True(t, errors.Is(e, &Error{Kind: KindUpstream}))
	assert.False(t, errors.Is(e, &Error{Kind: KindHTTP}))
}
