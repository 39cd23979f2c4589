// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend implements the HTTP client for the chat backend: session
// verification, token login, and proxied chat completions. All calls are
// JSON over HTTP with an `Authorization: Token <token>` header and exactly
// one request per operation; the client never retries.
package backend
