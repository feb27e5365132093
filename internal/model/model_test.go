// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversation(t *testing.T) {
	c := NewConversation(NewUserMessage("hi"))

	assert.True(t, c.Success)
	assert.Nil(t, c.TokenUsage)
	assert.True(t, c.Message.IsUser())
}

func TestConversation_CopiesDoNotAlias(t *testing.T) {
	orig := NewConversation(NewUserMessage("hi"))
	withUsage := orig.WithTokenUsage(7)
	failed := orig.Failed()

	assert.Nil(t, orig.TokenUsage, "original must not change")
	assert.True(t, orig.Success, "original must not change")

	n, ok := withUsage.Tokens()
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	assert.False(t, failed.Success)
}

func TestClone(t *testing.T) {
	src := []Conversation{NewConversation(NewUserMessage("a")).WithTokenUsage(3)}
	dst := Clone(src)

	*dst[0].TokenUsage = 99
	assert.Equal(t, 3, *src[0].TokenUsage)
	assert.Nil(t, Clone(nil))
}

func TestSession_JSONShape(t *testing.T) {
	s := Session{Conversations: []Conversation{
		NewConversation(NewUserMessage("q")).WithTokenUsage(5),
		NewConversation(NewAssistantMessage("a")).Failed(),
	}}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"conversations":[
		{"message":{"role":"user","content":"q"},"success":true,"tokenUsage":5},
		{"message":{"role":"assistant","content":"a"},"success":false}
	]}`, string(data))
}

func TestSession_Valid(t *testing.T) {
	assert.True(t, Session{}.Valid())
	bad := Session{Conversations: []Conversation{{Message: Message{Role: "robot"}}}}
	assert.False(t, bad.Valid())
}
