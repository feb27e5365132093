// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/chatptq/internal/config"
)

func TestResolveKey(t *testing.T) {
	tests := []struct {
		mode config.FastSendMode
		key  string
		want KeyAction
	}{
		{config.FastSendShiftEnter, "enter", KeySubmit},
		{config.FastSendShiftEnter, "alt+enter", KeyNewline},
		{config.FastSendShiftEnter, "shift+enter", KeyNewline},
		{config.FastSendShiftEnter, "ctrl+j", KeyNewline},
		{config.FastSendControlEnter, "enter", KeySubmit},
		{config.FastSendControlEnter, "ctrl+j", KeyNewline},
		{config.FastSendLongPressEnter, "enter", KeyHold},
		{config.FastSendLongPressEnter, "alt+enter", KeyNewline},
		{config.FastSendNone, "enter", KeyNewline},
		{config.FastSendNone, "ctrl+s", KeySubmit},
		{config.FastSendShiftEnter, "ctrl+s", KeySubmit},
		{config.FastSendShiftEnter, "a", KeyPass},
		{config.FastSendNone, "backspace", KeyPass},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveKey(tt.mode, tt.key), "%s %s", tt.mode, tt.key)
	}
}

func TestSendHint(t *testing.T) {
	assert.Contains(t, SendHint(config.FastSendShiftEnter, 300), "Enter send")
	assert.Contains(t, SendHint(config.FastSendLongPressEnter, 300), "300ms")
	assert.Contains(t, SendHint(config.FastSendNone, 300), "Ctrl+S")
}

func TestHoldTracker(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

	t.Run("tap inserts newline", func(t *testing.T) {
		h := NewHoldTracker(300*time.Millisecond, 0)
		assert.Equal(t, KeyNewline, h.Press(at(0)))
		assert.Equal(t, KeyNewline, h.Press(at(1000)), "separate tap after the gap")
	})

	t.Run("hold past threshold submits once", func(t *testing.T) {
		h := NewHoldTracker(300*time.Millisecond, 0)
		assert.Equal(t, KeyNewline, h.Press(at(0)))
		assert.Equal(t, KeySwallow, h.Press(at(250)))
		assert.Equal(t, KeySwallow, h.Press(at(280)))
		assert.Equal(t, KeySubmit, h.Press(at(310)))
		assert.Equal(t, KeySwallow, h.Press(at(340)), "repeats after submit are swallowed")
		assert.Equal(t, KeyNewline, h.Press(at(2000)))
	})

	t.Run("reset starts over", func(t *testing.T) {
		h := NewHoldTracker(300*time.Millisecond, 0)
		h.Press(at(0))
		h.Reset()
		assert.Equal(t, KeyNewline, h.Press(at(100)))
	})

	t.Run("threshold change applies", func(t *testing.T) {
		h := NewHoldTracker(300*time.Millisecond, 0)
		h.SetThreshold(50 * time.Millisecond)
		h.Press(at(0))
		assert.Equal(t, KeySubmit, h.Press(at(60)))
	})
}
