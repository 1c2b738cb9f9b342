// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is one chat as shown to the user.
type Transcript struct {
	Title     string          `json:"title"`
	SessionID string          `json:"session_id,omitempty"`
	Author    string          `json:"author,omitempty"`
	Guest     bool            `json:"guest"`
	CreatedAt time.Time       `json:"created_at"`
	Messages  []model.Message `json:"messages"`
}

// New builds a transcript dated by its first message.
func New(title string, msgs []model.Message) *Transcript {
	t := &Transcript{Title: title, Messages: msgs}
	if len(msgs) > 0 {
		t.CreatedAt = msgs[0].Timestamp
	}
	if t.Title == "" {
		t.Title = "Chat"
	}
	return t
}

// =============================================================================
// EXPORTERS
// =============================================================================

// Exporter renders a transcript in one format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds front matter and a session section.
	IncludeMetadata bool

	// IncludeTimestamps adds the time to each message heading.
	IncludeTimestamps bool

	// Now stamps the export. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{IncludeMetadata: true, IncludeTimestamps: true}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ForPath picks the exporter matching path's extension.
func ForPath(path string, opts *Options) Exporter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONExporter()
	}
	return NewMarkdownExporter(opts)
}

// ToFile writes t to path and returns the path written. An empty path or a
// directory gets a generated Markdown file name.
func ToFile(t *Transcript, path string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if t == nil || len(t.Messages) == 0 {
		return "", ErrEmptyTranscript
	}

	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		name := fmt.Sprintf("chat_%s_%s.md", sanitizeFilename(t.Title), opts.now().Format("20060102_150405"))
		path = filepath.Join(path, name)
	}

	content, err := ForPath(path, opts).Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// sanitizeFilename makes s safe as a file name component.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(strings.TrimSpace(s), 50)

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "chat"
	}
	return b.String()
}
