// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateWidth shortens s to fit maxWidth terminal cells, appending an
// ellipsis when truncation happens. Width-aware so CJK and emoji don't
// overflow the status bar.
func TruncateWidth(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 1 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// PadWidth right-pads s with spaces to exactly width cells, truncating
// when it is already longer.
func PadWidth(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w > width {
		return TruncateWidth(s, width)
	}
	return s + strings.Repeat(" ", width-w)
}

// FirstLine returns the first line of s, trimmed.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
