// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists botline's small amount of local state.
//
// The model is a flat string key/value store, the same shape a browser's
// local storage has. Four keys are used: the access token, the cached user
// record, the guest prompt counter and the guest session id.
//
// # Key Types
//
//   - Store: the key/value interface every component depends on
//   - SQLiteStore: default backend, a single kv table (pure Go sqlite)
//   - FileStore: one JSON document, replaced atomically; can watch for
//     writes by other processes
//   - MemoryStore: process-local, used for --ephemeral and tests
//   - EncryptedStore: seals sensitive keys of another Store with AES-256-GCM
//
// # Usage
//
//	st, err := storage.Open(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	token, ok, err := st.Get(storage.KeyToken)
//
// # Concurrency
//
// All backends are safe for concurrent use within one process. Across
// processes the last writer wins; FileStore.Watch lets a long-running
// process pick up values written by another one.
package storage
