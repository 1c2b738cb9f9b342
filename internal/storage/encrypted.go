// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// EncryptedPrefix marks a sealed value: ENC:base64(nonce|ciphertext|tag).
const EncryptedPrefix = "ENC:"

// KeySaltKey holds the hex PBKDF2 salt in the wrapped store.
const KeySaltKey = "storageSalt"

const (
	keySize  = 32
	saltSize = 16
)

// PBKDF2Iterations is the PBKDF2-SHA-256 work factor.
var PBKDF2Iterations = 600000

var (
	// ErrNoPassphrase is returned when encryption is requested without a key.
	ErrNoPassphrase = errors.New("storage: encryption requires a passphrase (BOTLINE_STORAGE_KEY)")
	// ErrDecrypt is returned when a sealed value cannot be opened, usually
	// because the passphrase changed.
	ErrDecrypt = errors.New("storage: cannot decrypt value")
)

// DefaultSensitiveKeys are sealed unless other keys are given.
var DefaultSensitiveKeys = []string{KeyToken, KeyUser}

// =============================================================================
// ENCRYPTED STORE
// =============================================================================

// EncryptedStore seals the values of sensitive keys before handing them to
// the wrapped store. Other keys pass through untouched.
type EncryptedStore struct {
	inner     Backend
	aead      cipher.AEAD
	sensitive []string
}

// NewEncryptedStore derives the key from passphrase and a salt persisted in
// inner, generating the salt on first use.
func NewEncryptedStore(inner Backend, passphrase string, sensitive ...string) (*EncryptedStore, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	if len(sensitive) == 0 {
		sensitive = DefaultSensitiveKeys
	}

	salt, err := loadOrCreateSalt(inner)
	if err != nil {
		return nil, err
	}

	key := pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, keySize, sha256.New)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}

	return &EncryptedStore{inner: inner, aead: aead, sensitive: sensitive}, nil
}

func loadOrCreateSalt(inner Store) ([]byte, error) {
	raw, ok, err := inner.Get(KeySaltKey)
	if err != nil {
		return nil, err
	}
	if ok {
		salt, err := hex.DecodeString(raw)
		if err != nil || len(salt) != saltSize {
			return nil, fmt.Errorf("storage: corrupt salt under %q", KeySaltKey)
		}
		return salt, nil
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := inner.Set(KeySaltKey, hex.EncodeToString(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}

func (e *EncryptedStore) isSensitive(key string) bool {
	return slices.Contains(e.sensitive, key)
}

func (e *EncryptedStore) seal(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *EncryptedStore) open(value string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil {
		return "", ErrDecrypt
	}
	ns := e.aead.NonceSize()
	if len(data) < ns {
		return "", ErrDecrypt
	}
	plain, err := e.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// Get opens sealed values. A plaintext value under a sensitive key, left
// from before encryption was enabled, is returned as is and sealed on its
// next write.
func (e *EncryptedStore) Get(key string) (string, bool, error) {
	v, ok, err := e.inner.Get(key)
	if err != nil || !ok {
		return v, ok, err
	}
	if !e.isSensitive(key) || !strings.HasPrefix(v, EncryptedPrefix) {
		return v, true, nil
	}
	plain, err := e.open(v)
	if err != nil {
		return "", false, fmt.Errorf("%w %q", err, key)
	}
	return plain, true, nil
}

func (e *EncryptedStore) Set(key, value string) error {
	if e.isSensitive(key) {
		sealed, err := e.seal(value)
		if err != nil {
			return err
		}
		value = sealed
	}
	return e.inner.Set(key, value)
}

func (e *EncryptedStore) Remove(keys ...string) error {
	return e.inner.Remove(keys...)
}

// Unwrap returns the wrapped backend.
func (e *EncryptedStore) Unwrap() Backend {
	return e.inner
}

// Close closes the wrapped store.
func (e *EncryptedStore) Close() error {
	return e.inner.Close()
}
