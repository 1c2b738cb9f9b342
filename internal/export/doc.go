// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat transcript to disk.
//
// Two formats are supported, picked from the file extension:
//
//   - Markdown (.md, the default): front matter, a heading per message
//   - JSON (.json): the transcript record as-is
//
// Usage:
//
//	t := export.New("Support chat", msgs)
//	path, err := export.ToFile(t, "", export.DefaultOptions())
package export
