// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth owns the client side of authentication: the credential
// store that persists the opaque bearer token across runs, and the session
// gate that decides between the login and conversation surfaces.
package auth
