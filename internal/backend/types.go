// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import "github.com/jeranaias/chatterm/internal/model"

// =============================================================================
// WIRE TYPES
// =============================================================================

// chatMessage is the wire shape of one turn. Only role and content travel;
// local IDs and timestamps stay client-side.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest is the body for the chat completions endpoint.
type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// completionChoice is one returned reply.
type completionChoice struct {
	Message chatMessage `json:"message"`
}

// completionData carries the choices list. A null data field on a 200
// response is the "empty response" failure case.
type completionData struct {
	Choices []completionChoice `json:"choices"`
}

// completionResponse is the backend's envelope: its own status field is
// checked separately from the transport status.
type completionResponse struct {
	Status  int             `json:"status"`
	Data    *completionData `json:"data"`
	Message string          `json:"message,omitempty"`
}

// verifyResponse is the session verification result.
type verifyResponse struct {
	IsLoggedIn bool `json:"is_logged_in"`
}

// loginRequest is the body for the token login endpoint.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse carries the issued token. An empty token on a 2xx response
// still counts as a failed login.
type loginResponse struct {
	Token string `json:"token"`
}

// errorBody is a best-effort parse of error payloads. Different handlers
// embed the detail under different keys.
type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// text returns the first non-empty embedded message.
func (e errorBody) text() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error.Message
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// toWire converts turns to their wire shape.
func toWire(turns []model.Turn) []chatMessage {
	out := make([]chatMessage, len(turns))
	for i, t := range turns {
		out[i] = chatMessage{Role: t.Role.String(), Content: t.Content}
	}
	return out
}
