// styles.go - Centralized styling for all CLI commands in chatterm.
//
// Colors are automatically disabled for non-TTY output and when NO_COLOR
// is set; FORCE_COLOR overrides detection.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatterm/internal/ui/styles"
)

// init configures lipgloss based on terminal capabilities so every style
// below degrades to plain text off-TTY.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// titleStyle is used for command titles and headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	// labelStyle is used for field labels
	labelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(14)

	// valueStyle is used for regular values
	valueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	// successStyle is used for success messages
	successStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	// errorTagStyle is used for the [ERROR] tag on stderr
	errorTagStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// dimStyle is used for secondary information and hints
	dimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// promptStyle is used for the ask REPL prompt
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// assistantLabelStyle marks assistant replies in the ask REPL
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(styles.Purple).
				Bold(true)
)
