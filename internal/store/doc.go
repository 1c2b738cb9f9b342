// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the client-side state of a botline session: who is
// signed in, the running chat transcript with its guest quota, and the last
// fetched statistics.
//
// Stores are plain values created by the application root and passed to
// whatever needs them. Cross-store coupling is explicit: the ChatStore is
// given an Identity (normally the AuthStore) and subscribes to
// AuthStore.OnAuthenticated to reset the guest quota.
//
// All stores are safe for concurrent use.
package store
