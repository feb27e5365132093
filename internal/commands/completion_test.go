// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(cs []Completion) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Value
	}
	return out
}

func TestComplete_CommandNames(t *testing.T) {
	c := NewCompleter(NewRegistry())

	got := values(c.Complete("/tr", 3))
	require.NotEmpty(t, got)
	assert.Equal(t, "/tr", got[0], "exact match ranks first")
	assert.Contains(t, got, "/translate")

	assert.Nil(t, c.Complete("hello", 5))
}

func TestComplete_EnumArg(t *testing.T) {
	c := NewCompleter(NewRegistry())

	assert.Equal(t, []string{"ShiftEnter"}, values(c.Complete("/mode sh", 8)))
	assert.ElementsMatch(t, []string{"on", "off"}, values(c.Complete("/sysproxy ", 10)))
}

func TestComplete_ConfigKeys(t *testing.T) {
	c := NewCompleter(NewRegistry())
	got := values(c.Complete("/set user_proxy.", 16))
	assert.ElementsMatch(t, []string{"user_proxy.host", "user_proxy.port"}, got)
}

func TestComplete_Languages(t *testing.T) {
	c := NewCompleter(NewRegistry())
	got := c.Complete("/tr Fre", 7)
	require.Len(t, got, 1)
	assert.Equal(t, "fr", got[0].Value)
	assert.Equal(t, "French", got[0].Description)
}

func TestComplete_Entries(t *testing.T) {
	c := NewCompleter(NewRegistry())
	c.EntriesFn = func() int { return 3 }

	assert.Equal(t, []string{"last", "3", "2", "1"}, values(c.Complete("/copy ", 6)))
	assert.Equal(t, []string{"2"}, values(c.Complete("/translate 2", 12)))
}

func TestComplete_CursorInMiddle(t *testing.T) {
	c := NewCompleter(NewRegistry())
	got := values(c.Complete("/he whatever", 3))
	assert.Contains(t, got, "/help")
}

func TestCompletionState_Navigation(t *testing.T) {
	cs := NewCompletionState()
	assert.Nil(t, cs.GetSelected())
	assert.Equal(t, "", cs.Accept())

	cs.Update("/c", []Completion{{Value: "/clear"}, {Value: "/config"}, {Value: "/copy"}})
	assert.True(t, cs.Visible)
	assert.Equal(t, "/clear", cs.Accept())

	cs.Next()
	assert.Equal(t, "/config", cs.GetSelected().Value)
	cs.Prev()
	cs.Prev()
	assert.Equal(t, "/copy", cs.Accept())

	cs.Clear()
	assert.False(t, cs.Visible)
	assert.Nil(t, cs.GetSelected())
}
