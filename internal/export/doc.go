// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the conversation transcript to shareable files.
//
// # Key Types
//
//   - Transcript: the entries plus the names shown in the export
//   - Exporter: renders a Transcript in one format
//   - Format: markdown or json
//
// # Usage
//
//	t := export.Transcript{Title: "Trip planning", Assistant: cfg.GPTName, Entries: sess.Conversations()}
//	ex, err := export.NewExporter(export.FormatMarkdown, nil)
//	path, err := export.ExportToFile(t, ex, ".")
//
// Failed entries are left out unless Options.IncludeFailed is set.
package export
