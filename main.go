// chatterm - a terminal client for the chat completion backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatterm/internal/auth"
	"github.com/jeranaias/chatterm/internal/backend"
	"github.com/jeranaias/chatterm/internal/cli"
	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/guard"
	"github.com/jeranaias/chatterm/internal/history"
	"github.com/jeranaias/chatterm/internal/storage"
	"github.com/jeranaias/chatterm/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	if cmd == cli.CmdTUI {
		runTUI(args)
		return
	}

	os.Exit(cli.Run(cmd, args))
}

// runTUI wires the collaborators and starts the bubbletea program. The
// submission guard is constructed here and injected, so the TUI and its
// tests never reach for ambient state.
func runTUI(args cli.Args) {
	cfg := config.Global()

	// CLI args override config.
	if args.Model != "" {
		cfg = cfg.Clone()
		cfg.Chat.Model = args.Model
	}

	dataDir := auth.DefaultDataDir()
	tokens := auth.NewFileTokenStore(dataDir)
	token, err := tokens.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read stored token: %v\n", err)
		os.Exit(1)
	}

	client := backend.New(cfg.Server.URL).
		WithTimeout(time.Duration(cfg.Server.TimeoutSeconds) * time.Second)

	// Guard debounce logs go to a file; stderr belongs to the TUI.
	submitGuard := guard.New(debugLogf(dataDir, args.Verbose))

	var hist *history.Store
	if cfg.History.Enabled {
		h, err := history.Open(history.DefaultPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: request history unavailable: %v\n", err)
		} else {
			hist = h
			defer hist.Close()
		}
	}

	archive := storage.NewStore(storage.DefaultDir(), cfg.Archive.MaxConversations)

	m := chat.New(chat.Deps{
		Client:  client,
		Tokens:  tokens,
		Gate:    auth.NewGate(token),
		Guard:   submitGuard,
		Hist:    hist,
		Archive: archive,
		Config:  cfg,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Keep the config singleton fresh while the TUI runs, and forward the
	// reload into the program so the live session picks it up.
	watcher, err := config.Watch(config.DefaultPath(), func(cfg *config.Config, err error) {
		if err == nil {
			config.SetGlobal(cfg)
			p.Send(chat.ConfigReloadedMsg{Config: cfg})
		}
	})
	if err == nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running chatterm: %v\n", err)
		os.Exit(1)
	}
}

// debugLogf returns the guard's log sink: a debug log file under the data
// directory in verbose mode, nil otherwise.
func debugLogf(dataDir string, verbose bool) func(format string, v ...any) {
	if !verbose {
		return nil
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil
	}
	logger := log.New(f, "", log.LstdFlags)
	return logger.Printf
}
