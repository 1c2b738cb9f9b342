// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/botline/internal/config"
)

// =============================================================================
// KEYS
// =============================================================================

// Persisted keys.
const (
	KeyToken            = "token"
	KeyUser             = "user"
	KeyGuestPromptCount = "guestPromptCount"
	KeyGuestSessionID   = "guestSessionId"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// =============================================================================
// INTERFACES
// =============================================================================

// Store is a string key/value store.
//
// Get reports whether the key exists. Remove ignores keys that do not exist.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(keys ...string) error
}

// Backend is a Store that holds resources.
type Backend interface {
	Store
	io.Closer
}

// =============================================================================
// TYPED HELPERS
// =============================================================================

// GetInt reads an integer value. Missing and malformed values read as 0.
func GetInt(s Store, key string) (int, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// SetInt stores an integer value.
func SetInt(s Store, key string, n int) error {
	return s.Set(key, strconv.Itoa(n))
}

// GetJSON decodes the JSON value stored under key into v. It reports false
// when the key does not exist.
func GetJSON(s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v as JSON under key.
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(key, string(data))
}

// =============================================================================
// OPEN
// =============================================================================

// Open creates the backend selected by cfg.Storage, wrapped in an
// EncryptedStore when encryption is enabled.
func Open(cfg *config.Config, logger logrus.FieldLogger) (Backend, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Storage.Backend {
	case "memory":
		backend = NewMemoryStore()
	case "file":
		path, perr := cfg.StoragePath()
		if perr != nil {
			return nil, perr
		}
		backend, err = NewFileStore(path, logger)
	case "sqlite", "":
		path, perr := cfg.StoragePath()
		if perr != nil {
			return nil, perr
		}
		backend, err = OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Encrypt {
		enc, err := NewEncryptedStore(backend, cfg.Storage.Passphrase)
		if err != nil {
			backend.Close()
			return nil, err
		}
		return enc, nil
	}
	return backend, nil
}
