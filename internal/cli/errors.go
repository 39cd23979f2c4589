// errors.go - Unified error handling for all CLI commands in chatterm.
//
// STANDARDIZED PATTERN:
//   - ALWAYS return errors (never just print and return nil)
//   - Let the caller decide how to display errors
//   - Use structured error types for better error handling
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/chatterm/internal/backend"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates authentication failure
	ExitAuthError = 4
	// ExitNetworkError indicates a backend or connectivity error
	ExitNetworkError = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError represents invalid command usage.
type UsageError struct {
	Command string // Command that was misused (e.g., "config", "history")
	Reason  string // Human-readable reason
	Example string // Example of valid usage (optional)
}

func (e *UsageError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Command, e.Reason)
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewUsageError creates a usage error with an example.
func NewUsageError(command, reason, example string) error {
	return &UsageError{Command: command, Reason: reason, Example: example}
}

// AuthRequiredError is returned when a command needs a valid session but
// none is available.
type AuthRequiredError struct {
	Reason string
}

func (e *AuthRequiredError) Error() string {
	if e.Reason != "" {
		return "not logged in: " + e.Reason + " (run: chatterm login)"
	}
	return "not logged in (run: chatterm login)"
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError prints an error in a consistent format to stderr.
func DisplayError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", errorTagStyle.Render("[ERROR]"), err.Error())
}

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var authErr *AuthRequiredError
	if errors.As(err, &authErr) {
		return ExitAuthError
	}
	if errors.Is(err, backend.ErrLoginFailed) {
		return ExitAuthError
	}

	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	var be *backend.Error
	if errors.As(err, &be) {
		return ExitNetworkError
	}

	return ExitGeneralError
}

// asBackendErrorCLI unwraps a *backend.Error when present.
func asBackendErrorCLI(err error) *backend.Error {
	var be *backend.Error
	if errors.As(err, &be) {
		return be
	}
	return nil
}

// configError wraps configuration failures so they map to ExitConfigError.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// WrapConfigError marks an error as configuration-related.
func WrapConfigError(err error) error {
	if err == nil {
		return nil
	}
	return &configError{err: err}
}
