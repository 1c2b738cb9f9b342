// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package service wraps the chat backend's endpoints in typed calls.
//
// There is one service per resource: AuthService, UserService,
// ChatService, RatingService and StatService. Each method maps to a single
// endpoint and returns the decoded record. The backend is not consistent
// about envelopes (some bodies are bare, some nest the payload under
// "data", "user", "stats" or "ratings"), so decoding probes the known
// locations in order.
//
// The package also holds the client-side form validation and the number
// and trend formatting used when presenting statistics. Validation never
// fails; it returns human-readable messages.
package service
