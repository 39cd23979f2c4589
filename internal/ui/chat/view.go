// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatterm/internal/model"
)

// newViewport builds the transcript viewport.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}

// View renders the active screen.
func (m Model) View() string {
	switch m.screen {
	case ScreenChecking:
		return m.viewChecking()
	case ScreenLogin:
		return m.viewLogin()
	case ScreenChat:
		return m.viewChat()
	}
	return ""
}

// =============================================================================
// CHECKING SCREEN
// =============================================================================

// viewChecking is the blocking surface shown while the session gate is
// Unknown. No submit, clear, or logout is reachable from here.
func (m Model) viewChecking() string {
	body := m.spin.View() + " Checking credentials..."
	return "\n\n" + lipgloss.NewStyle().Padding(1, 2).Render(
		m.theme.Title.Render("chatterm")+"\n\n"+m.theme.Subtitle.Render(body),
	)
}

// =============================================================================
// LOGIN SCREEN
// =============================================================================

func (m Model) viewLogin() string {
	var sb strings.Builder

	sb.WriteString(m.theme.Title.Render("chatterm"))
	sb.WriteString("\n")
	sb.WriteString(m.theme.Subtitle.Render("Sign in to continue"))
	sb.WriteString("\n\n")

	sb.WriteString(m.theme.FormLabel.Render("Username"))
	sb.WriteString("\n")
	sb.WriteString(m.username.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.FormLabel.Render("Password"))
	sb.WriteString("\n")
	sb.WriteString(m.password.View())
	sb.WriteString("\n")

	if m.loginError != "" {
		sb.WriteString("\n")
		sb.WriteString(m.theme.FormError.Render("Login failed: " + m.loginError))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.Help.Render("tab: switch field • enter: sign in • ctrl+c: quit"))

	return lipgloss.NewStyle().Padding(1, 2).Render(m.theme.FormBorder.Render(sb.String()))
}

// =============================================================================
// CHAT SCREEN
// =============================================================================

func (m Model) viewChat() string {
	var sb strings.Builder

	title := m.theme.Title.Render("chatterm")
	modelTag := m.theme.Subtitle.Render(" · " + m.modelID)
	sb.WriteString(title + modelTag)
	sb.WriteString("\n")

	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	sb.WriteString(m.statusLine())
	sb.WriteString("\n")
	sb.WriteString(m.input.View())

	return sb.String()
}

// statusLine renders error text first, then info text, then a hint.
func (m Model) statusLine() string {
	switch {
	case m.errorText != "":
		return m.theme.StatusError.Render(m.errorText)
	case m.infoText == statusSending:
		return m.theme.StatusPending.Render(m.spin.View() + " " + m.infoText)
	case m.infoText != "":
		return m.theme.StatusInfo.Render(m.infoText)
	default:
		return m.theme.Help.Render("enter: send • /help: commands • ctrl+c: quit")
	}
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// updateViewport re-renders the transcript and scrolls to the bottom.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	turns := m.conversation.Turns()
	if len(turns) == 0 {
		return m.theme.Help.Render("No messages yet. Say hello!")
	}

	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch t.Role {
		case model.RoleUser:
			sb.WriteString(m.theme.UserLabel.Render(t.Role.DisplayName()))
			sb.WriteString("\n")
			sb.WriteString(m.theme.TurnBody.Render(t.Content))
			sb.WriteString("\n")
		case model.RoleAssistant:
			sb.WriteString(m.theme.AssistantLabel.Render(t.Role.DisplayName()))
			sb.WriteString("\n")
			sb.WriteString(m.renderAssistant(t.Content))
		default:
			sb.WriteString(t.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderAssistant runs assistant turns through glamour when markdown
// rendering is enabled, falling back to plain text on any renderer error.
func (m *Model) renderAssistant(content string) string {
	if !m.renderMarkdown {
		return m.theme.TurnBody.Render(content) + "\n"
	}

	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}
	if m.mdRenderer == nil || m.mdWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return m.theme.TurnBody.Render(content) + "\n"
		}
		m.mdRenderer = r
		m.mdWidth = width
	}

	rendered, err := m.mdRenderer.Render(content)
	if err != nil {
		return m.theme.TurnBody.Render(content) + "\n"
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}
