// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// TOKEN STORE INTERFACE
// =============================================================================

// TokenStore persists one opaque bearer token across process restarts.
// Get returns "" (and no error) when no token is stored; Set("") is
// equivalent to Clear. Setting or clearing the token is the only supported
// way to move the session gate out of a terminal state back to Unknown.
type TokenStore interface {
	// Get returns the last persisted token, or "" when absent.
	Get() (string, error)
	// Set persists a non-empty token; an empty token clears the store.
	Set(token string) error
	// Clear removes any persisted token.
	Clear() error
	// Exists reports whether a token is stored.
	Exists() bool
}

// =============================================================================
// FILE TOKEN STORE
// =============================================================================

// FileTokenStore keeps the token sealed on disk under the data directory:
//
//	<dir>/token        ENC:-prefixed AES-GCM blob (0600)
//	<dir>/master.key   per-install random secret (0600)
//	<dir>/master.salt  key-derivation salt (0600)
type FileTokenStore struct {
	dir string
}

// NewFileTokenStore creates a store rooted at dir.
func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{dir: dir}
}

// DefaultDataDir returns the chatterm data directory (~/.chatterm).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".chatterm")
	}
	return filepath.Join(home, ".chatterm")
}

func (s *FileTokenStore) tokenPath() string { return filepath.Join(s.dir, "token") }
func (s *FileTokenStore) keyPath() string   { return filepath.Join(s.dir, "master.key") }
func (s *FileTokenStore) saltPath() string  { return filepath.Join(s.dir, "master.salt") }

// Get returns the persisted token, or "" when none is stored.
func (s *FileTokenStore) Get() (string, error) {
	encoded, err := os.ReadFile(s.tokenPath())
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	secret, salt, err := s.loadKeyMaterial()
	if err != nil {
		return "", err
	}
	defer zeroBytes(secret)

	aead, err := newAEAD(secret, salt)
	if err != nil {
		return "", err
	}

	token, err := open(aead, string(encoded))
	if err != nil {
		return "", fmt.Errorf("failed to unseal token: %w", err)
	}
	return string(token), nil
}

// Set persists the token sealed at rest. An empty token clears the store.
func (s *FileTokenStore) Set(token string) error {
	if token == "" {
		return s.Clear()
	}

	// Ensure data dir exists with restricted permissions before any key
	// material is written.
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	secret, salt, err := s.ensureKeyMaterial()
	if err != nil {
		return err
	}
	defer zeroBytes(secret)

	aead, err := newAEAD(secret, salt)
	if err != nil {
		return err
	}

	sealed, err := seal(aead, []byte(token))
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(s.tokenPath(), []byte(sealed), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Clear removes any persisted token. Key material is kept so a later Set
// does not have to re-derive a fresh identity.
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.tokenPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Exists reports whether a token file is present.
func (s *FileTokenStore) Exists() bool {
	_, err := os.Stat(s.tokenPath())
	return err == nil
}

// =============================================================================
// KEY MATERIAL
// =============================================================================

// loadKeyMaterial reads the existing secret and salt.
func (s *FileTokenStore) loadKeyMaterial() (secret, salt []byte, err error) {
	secret, err = os.ReadFile(s.keyPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read key file: %w", err)
	}
	salt, err = os.ReadFile(s.saltPath())
	if err != nil {
		zeroBytes(secret)
		return nil, nil, fmt.Errorf("failed to read salt file: %w", err)
	}
	return secret, salt, nil
}

// ensureKeyMaterial loads the secret and salt, generating both on first use.
func (s *FileTokenStore) ensureKeyMaterial() (secret, salt []byte, err error) {
	if _, statErr := os.Stat(s.keyPath()); statErr == nil {
		return s.loadKeyMaterial()
	}

	secret = make([]byte, secretSize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	salt = make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		zeroBytes(secret)
		return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	if err := util.AtomicWriteFile(s.keyPath(), secret, 0600); err != nil {
		zeroBytes(secret)
		return nil, nil, fmt.Errorf("failed to write key file: %w", err)
	}
	if err := util.AtomicWriteFile(s.saltPath(), salt, 0600); err != nil {
		zeroBytes(secret)
		return nil, nil, fmt.Errorf("failed to write salt file: %w", err)
	}
	return secret, salt, nil
}
