// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the records exchanged with the chat backend.
//
// # Key Types
//
//   - User, AuthUser: account identity and the login/register result
//   - Message: a single chat line, sent by the user or the bot
//   - Conversation: server-side grouping of messages, referenced by id
//   - ChatResponse, Envelope: response envelopes of the REST API
//   - UserStats, DashboardStats, SystemStats, MonthlyStats, RatingStats:
//     read-only snapshots fetched on demand
//
// JSON tags follow the backend's snake_case field names.
package model
