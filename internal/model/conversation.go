// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// SessionKey is the blob store key the transcript is persisted under.
const SessionKey = "chatConversations"

// =============================================================================
// CONVERSATION (TRANSCRIPT ENTRY)
// =============================================================================

// Conversation is one transcript entry. Success is false when the round trip
// for the entry failed; such entries stay in the transcript but are not sent
// upstream again. TokenUsage is nil until the service reports usage.
//
// Conversations are replaced, never mutated: the With* helpers return copies.
type Conversation struct {
	Message    Message `json:"message"`
	Success    bool    `json:"success"`
	TokenUsage *int    `json:"tokenUsage,omitempty"`
}

// NewConversation wraps a message in a successful entry with no usage.
func NewConversation(msg Message) Conversation {
	return Conversation{Message: msg, Success: true}
}

// WithTokenUsage returns a copy of c carrying the given usage.
func (c Conversation) WithTokenUsage(tokens int) Conversation {
	c.TokenUsage = &tokens
	return c
}

// Failed returns a copy of c flagged as failed.
func (c Conversation) Failed() Conversation {
	c.Success = false
	return c
}

// Tokens returns the recorded usage and whether it is set.
func (c Conversation) Tokens() (int, bool) {
	if c.TokenUsage == nil {
		return 0, false
	}
	return *c.TokenUsage, true
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the persisted form of a transcript.
type Session struct {
	Conversations []Conversation `json:"conversations"`
}

// Clone returns a deep copy of the transcript slice. Token usage pointers are
// copied so that callers cannot reach into another snapshot.
func Clone(convs []Conversation) []Conversation {
	if convs == nil {
		return nil
	}
	out := make([]Conversation, len(convs))
	for i, c := range convs {
		if c.TokenUsage != nil {
			n := *c.TokenUsage
			c.TokenUsage = &n
		}
		out[i] = c
	}
	return out
}

// Valid reports whether every entry has a known role. Used to reject
// malformed persisted sessions.
func (s Session) Valid() bool {
	for _, c := range s.Conversations {
		if !c.Message.Role.Valid() {
			return false
		}
	}
	return true
}
