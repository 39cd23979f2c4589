// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and persists chatterm configuration. Files are TOML
// first with a JSON fallback, environment variables override file values,
// and a process-wide singleton serves the loaded config to the UI and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" json:"server"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Archive ArchiveConfig `toml:"archive" json:"archive"`
	History HistoryConfig `toml:"history" json:"history"`
}

// ServerConfig points at the chat backend.
type ServerConfig struct {
	// URL is the backend base URL, e.g. "https://chat.example.com".
	URL string `toml:"url" json:"url"`
	// TimeoutSeconds bounds each request; completions can be slow.
	TimeoutSeconds int `toml:"timeout_seconds" json:"timeout_seconds"`
}

// ChatConfig controls the conversation itself.
type ChatConfig struct {
	// Model is the completion model identifier sent to the backend.
	Model string `toml:"model" json:"model"`
	// MaxTurns bounds conversation length (valid range 10-20).
	MaxTurns int `toml:"max_turns" json:"max_turns"`
}

// UIConfig controls presentation.
type UIConfig struct {
	// Markdown enables glamour rendering of assistant turns.
	Markdown bool `toml:"markdown" json:"markdown"`
	// Theme selects the color theme ("auto", "dark", "light").
	Theme string `toml:"theme" json:"theme"`
}

// ArchiveConfig controls the saved-conversations store.
type ArchiveConfig struct {
	// MaxConversations bounds the archive; oldest are evicted first.
	MaxConversations int `toml:"max_conversations" json:"max_conversations"`
}

// HistoryConfig controls the request history log.
type HistoryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "",
			TimeoutSeconds: 120,
		},
		Chat: ChatConfig{
			Model:    model.DefaultModel,
			MaxTurns: model.DefaultMaxTurns,
		},
		UI: UIConfig{
			Markdown: true,
			Theme:    "auto",
		},
		Archive: ArchiveConfig{
			MaxConversations: 50,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// fillDefaults replaces zero values with defaults after a partial file load.
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.TimeoutSeconds == 0 {
		cfg.Server.TimeoutSeconds = def.Server.TimeoutSeconds
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = def.Chat.Model
	}
	if cfg.Chat.MaxTurns == 0 {
		cfg.Chat.MaxTurns = def.Chat.MaxTurns
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = def.UI.Theme
	}
	if cfg.Archive.MaxConversations == 0 {
		cfg.Archive.MaxConversations = def.Archive.MaxConversations
	}
}

// DefaultPath returns the config file location (~/.chatterm/config.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".chatterm", "config.toml")
	}
	return filepath.Join(home, ".chatterm", "config.toml")
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file at path, trying TOML first and JSON as a
// fallback. A missing file yields defaults without error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if _, tomlErr := toml.Decode(string(data), cfg); tomlErr != nil {
		// Not TOML; the pre-TOML releases wrote JSON.
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse config (toml: %v, json: %v)", tomlErr, jsonErr)
		}
	}

	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", errs[0].Error())
	}
	return cfg, nil
}

// SaveTOML writes the config as TOML with restricted permissions.
func (c *Config) SaveTOML(path string) error {
	var sb strings.Builder
	sb.WriteString("# chatterm configuration\n")
	sb.WriteString("# Docs: https://github.com/jeranaias/chatterm\n\n")

	enc := toml.NewEncoder(&sb)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks field constraints and returns all violations.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Server.URL != "" && !strings.HasPrefix(c.Server.URL, "http://") && !strings.HasPrefix(c.Server.URL, "https://") {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: "must start with http:// or https://",
		})
	}
	if c.Server.TimeoutSeconds < 1 || c.Server.TimeoutSeconds > 600 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_seconds",
			Message: "must be between 1 and 600",
		})
	}
	if c.Chat.MaxTurns < model.MinTurnLimit || c.Chat.MaxTurns > model.MaxTurnLimit {
		errs = append(errs, ValidationError{
			Field:   "chat.max_turns",
			Message: fmt.Sprintf("must be between %d and %d", model.MinTurnLimit, model.MaxTurnLimit),
		})
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: "must be auto, dark, or light",
		})
	}
	if c.Archive.MaxConversations < 1 {
		errs = append(errs, ValidationError{
			Field:   "archive.max_conversations",
			Message: "must be at least 1",
		})
	}

	return errs
}

// =============================================================================
// ENV OVERRIDES
// =============================================================================

// ApplyEnvOverrides lets CHATTERM_* environment variables override file
// values, for ephemeral or CI use.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CHATTERM_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("CHATTERM_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("CHATTERM_MODEL"); v != "" {
		c.Chat.Model = v
	}
	if v := os.Getenv("CHATTERM_MAX_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chat.MaxTurns = n
		}
	}
	if v := os.Getenv("CHATTERM_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// ACCESS BY DOTTED KEY
// =============================================================================

// Get returns the value at a dotted key ("chat.model") for the config
// command. Unknown keys return false.
func (c *Config) Get(key string) (string, bool) {
	switch key {
	case "server.url":
		return c.Server.URL, true
	case "server.timeout_seconds":
		return strconv.Itoa(c.Server.TimeoutSeconds), true
	case "chat.model":
		return c.Chat.Model, true
	case "chat.max_turns":
		return strconv.Itoa(c.Chat.MaxTurns), true
	case "ui.markdown":
		return strconv.FormatBool(c.UI.Markdown), true
	case "ui.theme":
		return c.UI.Theme, true
	case "archive.max_conversations":
		return strconv.Itoa(c.Archive.MaxConversations), true
	case "history.enabled":
		return strconv.FormatBool(c.History.Enabled), true
	}
	return "", false
}

// Set assigns the value at a dotted key, with type conversion.
func (c *Config) Set(key, value string) error {
	switch key {
	case "server.url":
		c.Server.URL = value
	case "server.timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", key, value)
		}
		c.Server.TimeoutSeconds = n
	case "chat.model":
		c.Chat.Model = value
	case "chat.max_turns":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", key, value)
		}
		c.Chat.MaxTurns = n
	case "ui.markdown":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q", key, value)
		}
		c.UI.Markdown = b
	case "ui.theme":
		c.UI.Theme = value
	case "archive.max_conversations":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", key, value)
		}
		c.Archive.MaxConversations = n
	case "history.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q", key, value)
		}
		c.History.Enabled = b
	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	if errs := c.Validate(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	dup := *c
	return &dup
}

// =============================================================================
// GLOBAL SINGLETON
// =============================================================================

var (
	globalMu     sync.RWMutex
	globalConfig *Config
	globalOnce   sync.Once
)

// Global returns the process-wide config, loading it on first use.
func Global() *Config {
	globalOnce.Do(func() {
		cfg, err := Load(DefaultPath())
		if err != nil {
			cfg = Default()
			cfg.ApplyEnvOverrides()
		}
		globalMu.Lock()
		globalConfig = cfg
		globalMu.Unlock()
	})

	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the process-wide config.
func SetGlobal(cfg *Config) {
	globalOnce.Do(func() {})
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()
}

// ReloadGlobal re-reads the config file and swaps the singleton.
func ReloadGlobal() error {
	cfg, err := Load(DefaultPath())
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// ResetGlobalForTesting clears singleton state between tests.
func ResetGlobalForTesting() {
	globalMu.Lock()
	globalConfig = nil
	globalMu.Unlock()
	globalOnce = sync.Once{}
}
