// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no entries")

// Exporter renders a transcript in one format.
type Exporter interface {
	// Export renders t and returns the file content.
	Export(t Transcript) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// Transcript is what gets exported.
type Transcript struct {
	Title     string
	Assistant string // display name for assistant entries
	Model     string
	Exported  time.Time
	Entries   []model.Conversation
}

// entries returns the entries to render.
func (t Transcript) entries(includeFailed bool) []model.Conversation {
	if includeFailed {
		return t.Entries
	}
	out := make([]model.Conversation, 0, len(t.Entries))
	for _, c := range t.Entries {
		if c.Success {
			out = append(out, c)
		}
	}
	return out
}

// totalTokens sums the recorded usage of entries.
func totalTokens(entries []model.Conversation) int {
	total := 0
	for _, c := range entries {
		if n, ok := c.Tokens(); ok {
			total += n
		}
	}
	return total
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat converts a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want markdown or json)", s)
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a header with model, dates and token totals.
	IncludeMetadata bool

	// IncludeFailed keeps entries whose request failed.
	IncludeFailed bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{IncludeMetadata: true}
}

// NewExporter returns the exporter for f.
func NewExporter(f Format, opts *Options) (Exporter, error) {
	switch f {
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders t and writes it into dir under a name built from the
// title and export time. It returns the path written.
func ExportToFile(t Transcript, exporter Exporter, dir string) (string, error) {
	if t.Exported.IsZero() {
		t.Exported = time.Now()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(t.Title),
		t.Exported.Format("20060102_150405"),
		exporter.FileExtension(),
	)
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in file names.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
