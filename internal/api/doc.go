// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the chat backend's REST API.
//
// The client resolves paths against a base URL, sends JSON by default and
// multipart bodies for *Form payloads, and attaches the persisted bearer
// token to every request. A 401 response removes the persisted token as a
// side effect; the caller still receives the error.
//
// # Key Types
//
//   - Client: request execution, token handling, logging, rate limiting
//   - Form: multipart payload (fields and files)
//   - Response: status, headers and the raw body with gjson access
//   - APIError: any non-2xx response
//
// # Usage
//
//	client := api.NewClient(cfg.API.BaseURL, store).
//	    WithTimeout(cfg.Timeout()).
//	    WithLogger(logger)
//
//	resp, err := client.Post(ctx, "/login", creds)
//	if api.IsUnauthorized(err) {
//	    // token already cleared
//	}
package api
