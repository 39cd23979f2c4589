// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components shared by the TUI screens. It detects
// the terminal's color capability once at startup.
type Theme struct {
	ColorProfile termenv.Profile
	HasTrueColor bool

	// Screen chrome
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Help     lipgloss.Style

	// Transcript
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	TurnBody       lipgloss.Style

	// Status line
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusPending lipgloss.Style

	// Login form
	FormLabel  lipgloss.Style
	FormError  lipgloss.Style
	FormBorder lipgloss.Style

	// Spinner
	Spinner lipgloss.Style
}

// NewTheme builds the theme for the current terminal.
func NewTheme() *Theme {
	profile := termenv.ColorProfile()

	return &Theme{
		ColorProfile: profile,
		HasTrueColor: profile == termenv.TrueColor,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan),
		Subtitle: lipgloss.NewStyle().
			Foreground(TextSecondary),
		Help: lipgloss.NewStyle().
			Foreground(TextMuted),

		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan),
		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(Purple),
		TurnBody: lipgloss.NewStyle().
			Foreground(TextPrimary),

		StatusInfo: lipgloss.NewStyle().
			Foreground(TextSecondary),
		StatusError: lipgloss.NewStyle().
			Foreground(Rose),
		StatusPending: lipgloss.NewStyle().
			Foreground(Amber),

		FormLabel: lipgloss.NewStyle().
			Foreground(TextSecondary),
		FormError: lipgloss.NewStyle().
			Foreground(Rose),
		FormBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Overlay).
			Padding(1, 2),

		Spinner: lipgloss.NewStyle().
			Foreground(Cyan),
	}
}
