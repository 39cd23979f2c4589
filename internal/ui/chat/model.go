// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the chatterm TUI: a three-screen flow driven by
// the session gate. The checking screen blocks everything while the gate is
// Unknown, the login screen collects credentials, and the chat screen holds
// the conversation.
package chat

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatterm/internal/auth"
	"github.com/jeranaias/chatterm/internal/backend"
	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/guard"
	"github.com/jeranaias/chatterm/internal/history"
	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/storage"
	"github.com/jeranaias/chatterm/internal/ui/styles"
)

// =============================================================================
// SCREEN STATE
// =============================================================================

// Screen selects which surface is shown. Transitions follow the session
// gate: Unknown shows ScreenChecking, Unauthenticated shows ScreenLogin,
// Authenticated shows ScreenChat.
type Screen int

const (
	ScreenChecking Screen = iota
	ScreenLogin
	ScreenChat
)

// loginField tracks focus within the login form.
type loginField int

const (
	fieldUsername loginField = iota
	fieldPassword
)

// =============================================================================
// MODEL
// =============================================================================

// Deps carries the injected collaborators. The submission guard is a
// dependency, not package state, so tests construct their own.
type Deps struct {
	Client  *backend.Client
	Tokens  auth.TokenStore
	Gate    *auth.Gate
	Guard   *guard.SubmitGuard
	Hist    *history.Store // may be nil (history disabled)
	Archive *storage.Store
	Config  *config.Config
}

// Model is the root TUI model.
type Model struct {
	// Collaborators
	client  *backend.Client
	tokens  auth.TokenStore
	gate    *auth.Gate
	guard   *guard.SubmitGuard
	hist    *history.Store
	archive *storage.Store

	// Session settings
	modelID        string
	requestTimeout time.Duration

	// Conversation state
	conversation *model.Conversation

	// Screen state
	screen Screen
	width  int
	height int
	ready  bool

	// Chat widgets
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	// Login widgets
	username   textinput.Model
	password   textinput.Model
	focused    loginField
	loginError string

	// Status line. errorText and infoText are distinct so Clear can reset
	// both, matching the conversation contract.
	errorText string
	infoText  string

	// Presentation
	theme          *styles.Theme
	renderMarkdown bool
	mdRenderer     *glamour.TermRenderer
	mdWidth        int
}

// New builds the root model from its dependencies.
func New(deps Deps) Model {
	cfg := deps.Config

	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.CharLimit = 4000

	user := textinput.New()
	user.Placeholder = "username"
	user.Prompt = "  "
	user.CharLimit = 128
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = "  "
	pass.CharLimit = 128
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	theme := styles.NewTheme()
	sp.Style = theme.Spinner

	return Model{
		client:         deps.Client,
		tokens:         deps.Tokens,
		gate:           deps.Gate,
		guard:          deps.Guard,
		hist:           deps.Hist,
		archive:        deps.Archive,
		modelID:        cfg.Chat.Model,
		requestTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		conversation:   model.NewConversation(cfg.Chat.MaxTurns),
		screen:         ScreenChecking,
		input:          ti,
		username:       user,
		password:       pass,
		spin:           sp,
		theme:          theme,
		renderMarkdown: cfg.UI.Markdown,
	}
}

// Init starts the spinner and fires the first gate check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.checkAuthCmd())
}

// =============================================================================
// ACCESSORS (used by tests)
// =============================================================================

// CurrentScreen returns the active screen.
func (m Model) CurrentScreen() Screen { return m.screen }

// Conversation exposes the turn log.
func (m Model) Conversation() *model.Conversation { return m.conversation }

// ErrorText returns the current error line.
func (m Model) ErrorText() string { return m.errorText }

// InfoText returns the current info line.
func (m Model) InfoText() string { return m.infoText }

// InputValue returns the chat input contents.
func (m Model) InputValue() string { return m.input.Value() }

// ModelID returns the active completion model.
func (m Model) ModelID() string { return m.modelID }

// =============================================================================
// HELPERS
// =============================================================================

// asBackendError unwraps a *backend.Error when present.
func asBackendError(err error) *backend.Error {
	var be *backend.Error
	if errors.As(err, &be) {
		return be
	}
	return nil
}
