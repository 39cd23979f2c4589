// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatterm/internal/auth"
	"github.com/jeranaias/chatterm/internal/model"
)

// statusSending is shown while a completion is in flight.
const statusSending = "please wait..."

// Update is the root message handler.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case AuthCheckedMsg:
		return m.handleAuthChecked(msg)

	case LoginResultMsg:
		return m.handleLoginResult(msg)

	case CompletionMsg:
		return m.handleCompletion(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// =============================================================================
// RESIZE
// =============================================================================

// Reserved rows: title, status line, input, padding.
const chromeHeight = 6

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := msg.Height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = newViewport(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.Width = msg.Width - 4
	m.updateViewport()
	return m
}

// =============================================================================
// SESSION GATE TRANSITIONS
// =============================================================================

func (m Model) handleAuthChecked(msg AuthCheckedMsg) (tea.Model, tea.Cmd) {
	switch msg.Status {
	case auth.StatusAuthenticated:
		m.screen = ScreenChat
		m.loginError = ""
		m.input.Focus()
		m.updateViewport()
		return m, textinput.Blink

	case auth.StatusUnauthenticated:
		m.screen = ScreenLogin
		// Surface a verification failure once; fail-closed, no retry.
		if msg.Err != nil {
			m.loginError = "could not verify session: " + msg.Err.Error()
		}
		m.focused = fieldUsername
		m.username.Focus()
		m.password.Blur()
		return m, textinput.Blink

	default:
		// Still Unknown: keep the blocking screen.
		return m, nil
	}
}

func (m Model) handleLoginResult(msg LoginResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.loginError = msg.Err.Error()
		m.password.Reset()
		return m, nil
	}

	// Persist the token, then restart the gate cycle so the new token is
	// verified like any other token change.
	if err := m.tokens.Set(msg.Token); err != nil {
		m.loginError = "failed to store token: " + err.Error()
		return m, nil
	}
	m.gate.SetToken(msg.Token)
	m.screen = ScreenChecking
	m.loginError = ""
	m.password.Reset()
	return m, m.checkAuthCmd()
}

// =============================================================================
// COMPLETION RESULT
// =============================================================================

func (m Model) handleCompletion(msg CompletionMsg) (tea.Model, tea.Cmd) {
	// The guard is released on every path so the user can always retry.
	m.guard.Release()
	m.infoText = ""

	if msg.Err != nil {
		// The optimistic user turn stays in the conversation; only the
		// assistant turn is missing.
		m.errorText = msg.Err.Error()
		m.updateViewport()
		return m, nil
	}

	m.errorText = ""
	m.conversation.ReplaceAll(msg.Turns)
	m.updateViewport()
	return m, nil
}

// =============================================================================
// CONFIG HOT-RELOAD
// =============================================================================

// handleConfigReloaded applies edits to the config file to the live session,
// so the next completion request picks them up. The active model is session
// state owned by /model and is left alone.
func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) Model {
	cfg := msg.Config
	m.requestTimeout = time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if m.renderMarkdown != cfg.UI.Markdown {
		m.renderMarkdown = cfg.UI.Markdown
		m.updateViewport()
	}
	return m
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.screen {
	case ScreenChecking:
		// The gate is Unknown: every action is blocked.
		return m, nil
	case ScreenLogin:
		return m.handleLoginKey(msg)
	case ScreenChat:
		return m.handleChatKey(msg)
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		if m.focused == fieldUsername {
			m.focused = fieldPassword
			m.username.Blur()
			m.password.Focus()
		} else {
			m.focused = fieldUsername
			m.password.Blur()
			m.username.Focus()
		}
		return m, textinput.Blink

	case "enter":
		if m.focused == fieldUsername {
			m.focused = fieldPassword
			m.username.Blur()
			m.password.Focus()
			return m, textinput.Blink
		}
		username := strings.TrimSpace(m.username.Value())
		password := m.password.Value()
		if username == "" || password == "" {
			m.loginError = "username and password are required"
			return m, nil
		}
		m.loginError = ""
		return m, m.loginCmd(username, password)
	}

	var cmd tea.Cmd
	if m.focused == fieldUsername {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submit()

	case "esc":
		m.errorText = ""
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SUBMISSION
// =============================================================================

// submit runs the Idle -> Validating -> Sending machine for one user
// message. The guard keeps Sending single-flight process-wide.
func (m Model) submit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		// Validation failure, surfaced inline like any other.
		m.errorText = "The message text is empty."
		return m, nil
	}

	if strings.HasPrefix(content, "/") {
		return m.handleCommand(content)
	}

	// Validating: refused before any network call, conversation unchanged.
	if m.conversation.IsFull() {
		m.errorText = fmt.Sprintf("conversation limit reached (max %d turns); /clear to continue", m.conversation.MaxTurns())
		return m, nil
	}

	// Single-flight: a second submission while one is outstanding is a
	// logged no-op, not an error.
	if !m.guard.TryAcquire() {
		return m, nil
	}

	userTurn := model.NewUserTurn(content)
	if err := m.conversation.Append(userTurn); err != nil {
		m.guard.Release()
		m.errorText = err.Error()
		return m, nil
	}

	// The user's turn is visible immediately, even while the reply is
	// pending; it is not rolled back on failure.
	m.input.Reset()
	m.errorText = ""
	m.infoText = statusSending
	m.updateViewport()

	return m, m.completeCmd(m.conversation.Turns())
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(content)
	cmd := fields[0]

	// Conversation-mutating commands wait their turn behind an in-flight
	// completion rather than racing its ReplaceAll.
	switch cmd {
	case "/clear", "/logout", "/model", "/save", "/load":
		if m.guard.InFlight() {
			m.infoText = statusSending
			return m, nil
		}
	}

	switch cmd {
	case "/clear":
		m.input.Reset()
		m.conversation.Clear()
		m.errorText = ""
		m.infoText = ""
		m.updateViewport()
		return m, nil

	case "/logout":
		m.input.Reset()
		if err := m.tokens.Clear(); err != nil {
			m.errorText = "logout failed: " + err.Error()
			return m, nil
		}
		m.conversation.Clear()
		m.errorText = ""
		m.infoText = ""
		m.gate.SetToken("")
		m.screen = ScreenChecking
		return m, m.checkAuthCmd()

	case "/model":
		m.input.Reset()
		if len(fields) < 2 {
			m.infoText = "model: " + m.modelID
			return m, nil
		}
		m.modelID = fields[1]
		if _, known := model.GetModelInfo(m.modelID); !known {
			m.infoText = "model set to " + m.modelID + " (not in registry, passed through)"
		} else {
			m.infoText = "model set to " + m.modelID
		}
		return m, nil

	case "/save":
		m.input.Reset()
		if m.archive == nil {
			m.errorText = "archive is not available"
			return m, nil
		}
		if m.conversation.IsEmpty() {
			m.errorText = "nothing to save"
			return m, nil
		}
		id, err := m.archive.Save(m.conversation.Turns(), m.modelID)
		if err != nil {
			m.errorText = "save failed: " + err.Error()
			return m, nil
		}
		m.infoText = "saved conversation " + id
		return m, nil

	case "/list":
		m.input.Reset()
		if m.archive == nil {
			m.errorText = "archive is not available"
			return m, nil
		}
		metas, err := m.archive.List()
		if err != nil {
			m.errorText = "list failed: " + err.Error()
			return m, nil
		}
		if len(metas) == 0 {
			m.infoText = "no saved conversations"
			return m, nil
		}
		latest := metas[0]
		m.infoText = fmt.Sprintf("%d saved; latest: %s (%s)", len(metas), latest.Title, latest.ID)
		return m, nil

	case "/load":
		m.input.Reset()
		if m.archive == nil {
			m.errorText = "archive is not available"
			return m, nil
		}
		id := ""
		if len(fields) > 1 {
			id = fields[1]
		} else {
			metas, err := m.archive.List()
			if err != nil || len(metas) == 0 {
				m.errorText = "nothing to load"
				return m, nil
			}
			id = metas[0].ID
		}
		turns, meta, err := m.archive.Load(id)
		if err != nil {
			m.errorText = "load failed: " + err.Error()
			return m, nil
		}
		m.conversation.ReplaceAll(turns)
		if meta.Model != "" {
			m.modelID = meta.Model
		}
		m.errorText = ""
		m.infoText = "loaded " + meta.Title
		m.updateViewport()
		return m, nil

	case "/help":
		m.input.Reset()
		m.infoText = "/clear /model <id> /save /load [id] /list /logout /quit"
		return m, nil

	case "/quit":
		return m, tea.Quit

	default:
		m.input.Reset()
		m.errorText = "unknown command: " + cmd
		return m, nil
	}
}
