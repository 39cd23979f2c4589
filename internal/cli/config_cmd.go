// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command handler.
//
// Command: config
// Short:   Inspect and edit the chatterm configuration
//
// Examples:
//   chatterm config show
//   chatterm config get chat.model
//   chatterm config set chat.max_turns 15
//   chatterm config path
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jeranaias/chatterm/internal/config"
)

// configKeys is the display order for `config show`.
var configKeys = []string{
	"server.url",
	"server.timeout_seconds",
	"chat.model",
	"chat.max_turns",
	"ui.markdown",
	"ui.theme",
	"archive.max_conversations",
	"history.enabled",
}

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	cfg := config.Global()

	switch args.Subcommand {
	case "", "show":
		return configShow(cfg, args)

	case "get":
		if args.ConfigKey == "" {
			return NewUsageError("config", "get requires a key", "chatterm config get chat.model")
		}
		value, ok := cfg.Get(args.ConfigKey)
		if !ok {
			return NewUsageError("config", "unknown key: "+args.ConfigKey, "chatterm config show")
		}
		fmt.Println(value)
		return nil

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return NewUsageError("config", "set requires a key and a value", "chatterm config set chat.model gpt-4")
		}
		if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
			return WrapConfigError(err)
		}
		if err := cfg.SaveTOML(config.DefaultPath()); err != nil {
			return WrapConfigError(fmt.Errorf("failed to save config: %w", err))
		}
		if !args.Quiet {
			fmt.Println(successStyle.Render("Saved.") + " " + dimStyle.Render(args.ConfigKey+" = "+args.ConfigVal))
		}
		return nil

	case "path":
		fmt.Println(config.DefaultPath())
		return nil

	default:
		return NewUsageError("config", "unknown subcommand: "+args.Subcommand, "chatterm config [show|get|set|path]")
	}
}

// configShow prints every known key, as text or JSON.
func configShow(cfg *config.Config, args Args) error {
	if args.JSON {
		out := make(map[string]string, len(configKeys))
		for _, key := range configKeys {
			if value, ok := cfg.Get(key); ok {
				out[key] = value
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(titleStyle.Render("Configuration"))
	for _, key := range configKeys {
		value, ok := cfg.Get(key)
		if !ok {
			continue
		}
		fmt.Printf("  %-28s %s\n", dimStyle.Render(key), valueStyle.Render(value))
	}
	fmt.Println()
	fmt.Println(dimStyle.Render("File: " + config.DefaultPath()))
	return nil
}
