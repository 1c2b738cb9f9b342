// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for botline.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, optional .env files and validation.
//
// # Key Types
//
//   - Config: complete configuration
//   - APIConfig: backend base URL, timeout and client-side rate limit
//   - GuestConfig: anonymous message quota
//   - StorageConfig: where persisted local state lives
//   - LogConfig: logger level, format and destination
//
// # Configuration Precedence
//
// Highest first:
//   - Environment variables (BOTLINE_*), including those set by .env files
//   - ~/.botline/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClient(cfg.API.BaseURL, ...)
package config
