// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the botline command line.
//
// # Commands
//
//   - chat: interactive chat with line editing and history
//   - ask: send one message and print the reply
//   - login, register, logout, whoami: account session
//   - stats, profile, ratings, rate: signed-in features
//   - admin: user, rating and usage administration
//   - config: show and edit ~/.botline/config.toml
//
// Every command that talks to the backend goes through the navigation
// guard first, so a stale token is re-validated and protected commands
// refuse to run for guests.
//
// # Output
//
// With --json every command prints a single JSONResponse envelope on
// stdout. Otherwise output is styled with lipgloss, colors follow the
// termenv profile (NO_COLOR is honored) and bot replies are rendered as
// markdown when stdout is a terminal.
//
// # Exit Codes
//
//	0  success
//	1  general error
//	2  usage or input validation error
//	3  configuration error
//	4  authentication or permission error
//	5  network error
package cli
