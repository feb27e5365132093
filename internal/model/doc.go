// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
//
// These are plain value types shared by the session engine, the chat
// completions gateway and the persistence layer.
//
// # Key Types
//
//   - Message: Single chat message with a role and content
//   - Conversation: One transcript entry (message, round-trip outcome, token usage)
//   - Session: The persisted transcript
//   - ChatResponse: One assistant message plus the usage counters of a round trip
//   - Role: Message role enumeration (user, assistant, system)
//
// # Usage
//
// Build a transcript entry for freshly submitted text:
//
//	entry := model.NewConversation(model.NewUserMessage("Hello!"))
//	entry = entry.WithTokenUsage(12)
package model
