// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatterm/internal/auth"
	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/history"
	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// MESSAGES
// =============================================================================

// AuthCheckedMsg resolves one session gate cycle.
type AuthCheckedMsg struct {
	Status auth.Status
	Err    error
}

// LoginResultMsg carries the outcome of a login attempt.
type LoginResultMsg struct {
	Token string
	Err   error
}

// CompletionMsg carries the outcome of one completion request.
type CompletionMsg struct {
	Turns []model.Turn
	Err   error
}

// ConfigReloadedMsg carries a hot-reloaded config file into the running
// program. Sent from the fsnotify watcher in main.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// COMMANDS
// =============================================================================

// checkAuthCmd resolves the gate's current Unknown cycle. The gate itself
// skips the network round-trip when the token is absent.
func (m Model) checkAuthCmd() tea.Cmd {
	// Capture fields before the closure to avoid race conditions.
	gate := m.gate
	client := m.client
	timeout := m.requestTimeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		status, err := gate.Check(ctx, client)
		return AuthCheckedMsg{Status: status, Err: err}
	}
}

// loginCmd exchanges credentials for a token.
func (m Model) loginCmd(username, password string) tea.Cmd {
	client := m.client
	timeout := m.requestTimeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		token, err := client.Login(ctx, username, password)
		return LoginResultMsg{Token: token, Err: err}
	}
}

// completeCmd issues one completion request over a snapshot of the
// conversation and records the attempt in the history log.
func (m Model) completeCmd(contextTurns []model.Turn) tea.Cmd {
	client := m.client
	hist := m.hist
	modelID := m.modelID
	token := m.gate.Token()
	timeout := m.requestTimeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		turns, err := client.Complete(ctx, modelID, token, contextTurns)
		latency := time.Since(start)

		if hist != nil {
			entry := history.Entry{
				Model:     modelID,
				TurnCount: len(contextTurns),
				Outcome:   history.Classify(err),
				LatencyMS: latency.Milliseconds(),
			}
			if len(contextTurns) > 0 {
				entry.Prompt = util.TruncateWidth(util.FirstLine(contextTurns[len(contextTurns)-1].Content), 80)
			}
			if be := asBackendError(err); be != nil {
				entry.StatusCode = be.StatusCode
			}
			// History is best-effort; a write failure never blocks the chat.
			recCtx, recCancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = hist.Record(recCtx, entry)
			recCancel()
		}

		return CompletionMsg{Turns: turns, Err: err}
	}
}
