// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// TOKEN-AT-REST ENCRYPTION
// =============================================================================

// The persisted token is sealed with AES-256-GCM under a key derived from
// a per-install random secret. Format: ENC:base64(nonce|ciphertext|tag).

const (
	encryptedPrefix = "ENC:"
	nonceSize       = 12
	keySize         = 32
	saltSize        = 32
	secretSize      = 32

	// PBKDF2 iteration count for deriving the sealing key from the stored
	// secret. The secret is already high-entropy, so this only has to run
	// once per process.
	pbkdf2Iterations = 600000
)

var (
	// ErrInvalidCiphertext indicates the stored token blob is malformed.
	ErrInvalidCiphertext = errors.New("invalid token ciphertext format")
	// ErrDecryptionFailed indicates a wrong key or tampered data.
	ErrDecryptionFailed = errors.New("token decryption failed")
)

// zeroBytes zeros sensitive byte slices after use.
// SECURITY: Zero key material to prevent memory disclosure via crash dumps.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// deriveKey stretches the stored secret into the AES key.
func deriveKey(secret, salt []byte) []byte {
	return pbkdf2.Key(secret, salt, pbkdf2Iterations, keySize, sha256.New)
}

// newAEAD builds the AES-GCM cipher from secret + salt.
func newAEAD(secret, salt []byte) (cipher.AEAD, error) {
	key := deriveKey(secret, salt)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// seal encrypts plaintext and returns the ENC:-prefixed encoding.
func seal(aead cipher.AEAD, plaintext []byte) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	blob := append(nonce, ciphertext...)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(blob), nil
}

// open decrypts an ENC:-prefixed encoding.
func open(aead cipher.AEAD, encoded string) ([]byte, error) {
	if !strings.HasPrefix(encoded, encryptedPrefix) {
		return nil, ErrInvalidCiphertext
	}

	blob, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, encryptedPrefix))
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	if len(blob) < nonceSize+1 {
		return nil, ErrInvalidCiphertext
	}

	plaintext, err := aead.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
