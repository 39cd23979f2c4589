// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/chatterm/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// API paths, relative to the configured backend URL.
	verifyPath     = "/backend/auth/user/current/"
	loginPath      = "/backend/auth/login/token/"
	completionPath = "/backend/openai/chat/completions/"

	// DefaultTimeout bounds each request. Completions can be slow; the
	// transport timeout is the only deadline, there is no retry layer.
	DefaultTimeout = 120 * time.Second

	// MaxResponseSize caps response bodies (10MB) to prevent memory
	// exhaustion from a misbehaving server.
	MaxResponseSize = 10 * 1024 * 1024

	userAgent = "chatterm/1.0"
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat backend. Construct with New; the zero value is
// not usable. Client is safe for concurrent use, though the submission
// guard keeps completions single-flight in practice.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a client for the given backend URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		// One completion per second sustained, small burst for the
		// verify-then-complete sequence at startup.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// WithTimeout sets a custom request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client (used in tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithRateLimit overrides the client-side pacing of completion requests.
func (c *Client) WithRateLimit(perSecond float64, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// SESSION VERIFICATION
// =============================================================================

// Verify asks the backend whether the token is still valid. Pure
// request/response: no retries, and any transport or parse failure is
// returned to the caller, which treats it as not logged in (fail-closed).
func (c *Client) Verify(ctx context.Context, token string) (bool, error) {
	if c.baseURL == "" {
		return false, ErrNotConfigured
	}

	body, status, err := c.doRequest(ctx, c.baseURL+verifyPath, token, struct{}{})
	if err != nil {
		return false, fmt.Errorf("session verification failed: %w", err)
	}
	if status != http.StatusOK {
		return false, &Error{Kind: KindHTTP, StatusCode: status, Message: parseErrorMessage(body)}
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("session verification returned malformed response: %w", err)
	}
	return resp.IsLoggedIn, nil
}

// =============================================================================
// LOGIN
// =============================================================================

// Login exchanges credentials for a bearer token. A token is returned only
// from a 2xx, well-formed response carrying a non-empty token field; every
// other outcome is ErrLoginFailed with any backend-provided detail attached.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	if c.baseURL == "" {
		return "", ErrNotConfigured
	}

	body, status, err := c.doRequest(ctx, c.baseURL+loginPath, "", loginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if status < 200 || status >= 300 {
		if msg := parseErrorMessage(body); msg != "" {
			return "", fmt.Errorf("%w: %s", ErrLoginFailed, msg)
		}
		return "", fmt.Errorf("%w: status %d", ErrLoginFailed, status)
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: malformed response", ErrLoginFailed)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: no token issued", ErrLoginFailed)
	}
	return resp.Token, nil
}

// =============================================================================
// CHAT COMPLETION
// =============================================================================

// Complete sends the full context to the proxied completions endpoint and
// returns the context extended with each returned choice's message.
//
// The caller's slice is never mutated: replies are appended to a defensive
// copy, so on any failure the caller's conversation state is untouched.
//
// Validation order is significant:
//  1. transport/HTTP status != 200
//  2. body status field != 200
//  3. null/absent data payload
//  4. success: extract choices
func (c *Client) Complete(ctx context.Context, modelID, token string, contextTurns []model.Turn) ([]model.Turn, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	// Precondition checks: violations are caller bugs, rejected before any
	// network traffic.
	if len(contextTurns) == 0 {
		return nil, ErrEmptyContext
	}
	for i, t := range contextTurns {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%w: turn %d: %v", ErrInvalidTurn, i, err)
		}
	}

	// Client-side pacing. Not a retry mechanism: once the limiter admits
	// the call, exactly one request is issued.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("completion request aborted: %w", err)
	}

	body, status, err := c.doRequest(ctx, c.baseURL+completionPath, token, completionRequest{
		Model:    modelID,
		Messages: toWire(contextTurns),
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	// 1. Transport-level status.
	if status != http.StatusOK {
		return nil, &Error{Kind: KindHTTP, StatusCode: status, Message: parseErrorMessage(body)}
	}

	var resp completionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("completion response malformed: %w", err)
	}

	// 2. The envelope's own status field.
	if resp.Status != http.StatusOK {
		return nil, &Error{Kind: KindUpstream, StatusCode: resp.Status, Message: resp.Message}
	}

	// 3. Null payload.
	if resp.Data == nil {
		return nil, ErrEmptyResponse
	}

	// 4. Extend a copy of the context with the returned turns.
	extended := make([]model.Turn, len(contextTurns), len(contextTurns)+len(resp.Data.Choices))
	copy(extended, contextTurns)
	for _, choice := range resp.Data.Choices {
		extended = append(extended, model.NewTurn(model.Role(choice.Message.Role), choice.Message.Content))
	}
	return extended, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doRequest issues one POST with a JSON body and returns the (size-capped)
// response body and status code. Transport errors come back as errors;
// non-200 statuses are returned for the caller to classify.
func (c *Client) doRequest(ctx context.Context, url, token string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// setHeaders applies the standard headers. The backend uses the DRF token
// scheme, `Authorization: Token <token>`, not `Bearer`.
func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
}

// parseErrorMessage extracts any structured error message the backend
// embedded in an error body. Returns "" when nothing parseable is found.
func parseErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return eb.text()
}
