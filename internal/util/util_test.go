// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestAtomicWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "file.txt")

	if err := AtomicWriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want hello", data)
	}

	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	// Overwrite must fully replace
	if err := AtomicWriteFile(path, []byte("second"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile() overwrite error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("content after overwrite = %q", data)
	}

	// No temp files left behind
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxWidth int
	}{
		{"short unchanged", "abc", 10},
		{"exact unchanged", "abcde", 5},
		{"truncated", "abcdefghij", 5},
		{"wide runes", "日本語のテキスト", 6},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateWidth(tc.in, tc.maxWidth)
			if runewidth.StringWidth(got) > tc.maxWidth {
				t.Errorf("TruncateWidth(%q, %d) = %q, width %d overflows",
					tc.in, tc.maxWidth, got, runewidth.StringWidth(got))
			}
			if runewidth.StringWidth(tc.in) <= tc.maxWidth && got != tc.in {
				t.Errorf("short input should be unchanged, got %q", got)
			}
		})
	}
}

func TestPadWidth(t *testing.T) {
	if got := PadWidth("ab", 5); got != "ab   " {
		t.Errorf("PadWidth(ab, 5) = %q", got)
	}
	if w := runewidth.StringWidth(PadWidth("日本語テキスト", 4)); w > 4 {
		t.Errorf("PadWidth overflows: width %d", w)
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("  first \nsecond"); got != "first" {
		t.Errorf("FirstLine() = %q", got)
	}
	if got := FirstLine("only"); got != "only" {
		t.Errorf("FirstLine() = %q", got)
	}
}
