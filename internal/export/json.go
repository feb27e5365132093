// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/chatptq/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes the transcript in the persisted session shape, wrapped
// with export metadata, so the entries can be read back as a model.Session.
type JSONExporter struct {
	options *Options
}

// jsonDocument is the exported JSON shape.
type jsonDocument struct {
	Title         string               `json:"title,omitempty"`
	Assistant     string               `json:"assistant,omitempty"`
	Model         string               `json:"model,omitempty"`
	Exported      time.Time            `json:"exported"`
	TotalTokens   int                  `json:"totalTokens"`
	Conversations []model.Conversation `json:"conversations"`
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t Transcript) ([]byte, error) {
	entries := t.entries(e.options.IncludeFailed)
	if len(entries) == 0 {
		return nil, ErrEmptyTranscript
	}

	doc := jsonDocument{
		Exported:      t.Exported,
		TotalTokens:   totalTokens(entries),
		Conversations: entries,
	}
	if e.options.IncludeMetadata {
		doc.Title = t.Title
		doc.Assistant = t.Assistant
		doc.Model = t.Model
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
