// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the identity of an anonymous visitor.
//
// A guest is identified by a locally generated session id and may send a
// limited number of messages before registering. Both the id and the
// message counter are persisted so they survive restarts.
//
// # Usage
//
//	guest := session.NewGuest(store, cfg.Guest.MaxPrompts)
//	if guest.Exhausted() {
//	    return errors.New("please register")
//	}
//	id, err := guest.SessionID()
package session
