// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "sort"

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// ModelInfo describes a completion model selectable for a session. The
// backend proxies requests, so this registry only drives the selector UI
// and basic context-size hints; unknown model names are passed through.
type ModelInfo struct {
	ID        string // API identifier sent to the backend
	Name      string // Display name
	MaxTokens int    // Context window size
}

// Models is the registry of known completion models.
var Models = map[string]ModelInfo{
	"gpt-3.5-turbo": {
		ID:        "gpt-3.5-turbo",
		Name:      "GPT-3.5 Turbo",
		MaxTokens: 16385,
	},
	"gpt-3.5-turbo-16k": {
		ID:        "gpt-3.5-turbo-16k",
		Name:      "GPT-3.5 Turbo 16K",
		MaxTokens: 16385,
	},
	"gpt-4": {
		ID:        "gpt-4",
		Name:      "GPT-4",
		MaxTokens: 8192,
	},
	"gpt-4-turbo": {
		ID:        "gpt-4-turbo",
		Name:      "GPT-4 Turbo",
		MaxTokens: 128000,
	},
	"gpt-4-turbo-preview": {
		ID:        "gpt-4-turbo-preview",
		Name:      "GPT-4 Turbo Preview",
		MaxTokens: 128000,
	},
	"gpt-4o": {
		ID:        "gpt-4o",
		Name:      "GPT-4o",
		MaxTokens: 128000,
	},
	"claude-3-opus-20240229": {
		ID:        "claude-3-opus-20240229",
		Name:      "Claude 3 Opus",
		MaxTokens: 200000,
	},
	"claude-3-sonnet-20240229": {
		ID:        "claude-3-sonnet-20240229",
		Name:      "Claude 3 Sonnet",
		MaxTokens: 200000,
	},
	"claude-3-haiku-20240307": {
		ID:        "claude-3-haiku-20240307",
		Name:      "Claude 3 Haiku",
		MaxTokens: 200000,
	},
}

// DefaultModel is used when the config does not name one.
const DefaultModel = "gpt-4-turbo-preview"

// GetModelInfo looks up a model by registry key or API ID.
func GetModelInfo(name string) (ModelInfo, bool) {
	if m, ok := Models[name]; ok {
		return m, true
	}
	for _, m := range Models {
		if m.ID == name {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ModelIDs returns the registry keys in sorted order, for display.
func ModelIDs() []string {
	ids := make([]string, 0, len(Models))
	for id := range Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
