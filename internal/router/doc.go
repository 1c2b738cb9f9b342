// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router decides whether the current session may enter a screen.
//
// # Key Types
//
//   - Route: a named screen with its access requirements
//   - Guard: evaluates a Route against the auth state
//   - Decision: proceed, or redirect to auth, chat or the role landing page
//
// # Usage
//
//	g := router.NewGuard(stores.Auth, logger)
//	switch d := g.Decide(ctx, router.Admin); d.Kind {
//	case router.Proceed:
//	    // show the screen
//	default:
//	    // go to d.Target
//	}
//
// A token that is present but not yet confirmed is re-validated before any
// requirement is checked, since the backend may no longer honor it.
package router
