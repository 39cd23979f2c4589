// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - Shared collaborator wiring for CLI commands.
package cli

import (
	"fmt"
	"time"

	"github.com/jeranaias/chatterm/internal/auth"
	"github.com/jeranaias/chatterm/internal/backend"
	"github.com/jeranaias/chatterm/internal/config"
)

// cmdSession bundles the collaborators a CLI command needs: the backend
// client, the persisted token store, and the session gate seeded from the
// stored token.
type cmdSession struct {
	cfg     *config.Config
	client  *backend.Client
	tokens  auth.TokenStore
	gate    *auth.Gate
	modelID string
	timeout time.Duration
}

// newCmdSession wires a session from global config plus CLI overrides.
func newCmdSession(args Args) (*cmdSession, error) {
	cfg := config.Global()

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	client := backend.New(cfg.Server.URL).WithTimeout(timeout)

	tokens := auth.NewFileTokenStore(auth.DefaultDataDir())
	token, err := tokens.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to read stored token: %w", err)
	}

	modelID := cfg.Chat.Model
	if args.Model != "" {
		modelID = args.Model
	}

	return &cmdSession{
		cfg:     cfg,
		client:  client,
		tokens:  tokens,
		gate:    auth.NewGate(token),
		modelID: modelID,
		timeout: timeout,
	}, nil
}
