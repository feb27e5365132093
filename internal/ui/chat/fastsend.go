// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/chatptq/internal/config"
)

// =============================================================================
// FAST SEND KEY RESOLUTION
// =============================================================================

// KeyAction is what a key press means for the input box.
type KeyAction int

const (
	KeyPass    KeyAction = iota // Not a send key; the text area handles it
	KeySubmit                   // Send the input
	KeyNewline                  // Insert a line break at the cursor
	KeySwallow                  // Consume the key without effect
	KeyHold                     // Enter in long press mode; see HoldTracker
)

// SendKey submits the input in every mode, like a send button.
const SendKey = "ctrl+s"

// ResolveKey maps a key string to its action under mode. Terminals report
// Shift+Enter and Ctrl+Enter inconsistently, so alt+enter and ctrl+j are
// accepted as the modified Enter as well.
func ResolveKey(mode config.FastSendMode, key string) KeyAction {
	if key == SendKey {
		return KeySubmit
	}

	switch mode {
	case config.FastSendShiftEnter:
		switch key {
		case "enter":
			return KeySubmit
		case "shift+enter", "alt+enter", "ctrl+j":
			return KeyNewline
		}
	case config.FastSendControlEnter:
		switch key {
		case "enter":
			return KeySubmit
		case "ctrl+enter", "ctrl+j", "alt+enter":
			return KeyNewline
		}
	case config.FastSendLongPressEnter:
		switch key {
		case "enter":
			return KeyHold
		case "alt+enter", "ctrl+j":
			return KeyNewline
		}
	default:
		switch key {
		case "enter", "alt+enter", "ctrl+j":
			return KeyNewline
		}
	}
	return KeyPass
}

// SendHint describes the send and newline keys of mode for the status bar.
func SendHint(mode config.FastSendMode, longPressMS int) string {
	switch mode {
	case config.FastSendShiftEnter:
		return "Enter send · Alt+Enter newline"
	case config.FastSendControlEnter:
		return "Enter send · Ctrl+J newline"
	case config.FastSendLongPressEnter:
		return "Hold Enter " + time.Duration(longPressMS*int(time.Millisecond)).String() + " send · Enter newline"
	default:
		return "Ctrl+S send · Enter newline"
	}
}

// =============================================================================
// LONG PRESS EMULATION
// =============================================================================

// DefaultRepeatGap is the longest pause between two Enter events that still
// counts as one held key. It covers the initial auto-repeat delay of common
// terminals.
const DefaultRepeatGap = 600 * time.Millisecond

// HoldTracker turns a stream of Enter presses into newline or submit actions.
// Terminals do not report key release, so a held key is recognized by its
// auto-repeat events: the first press inserts a newline, repeats are
// swallowed, and once the key has been held longer than the threshold the
// input is submitted. Repeats after a submit are swallowed until the key is
// released.
type HoldTracker struct {
	threshold time.Duration
	gap       time.Duration

	start time.Time
	last  time.Time
	fired bool
}

// NewHoldTracker returns a tracker for the given hold threshold.
func NewHoldTracker(threshold, gap time.Duration) *HoldTracker {
	if gap <= 0 {
		gap = DefaultRepeatGap
	}
	return &HoldTracker{threshold: threshold, gap: gap}
}

// SetThreshold changes the hold duration.
func (h *HoldTracker) SetThreshold(d time.Duration) {
	h.threshold = d
}

// Press records an Enter press at now and returns KeyNewline, KeySubmit or
// KeySwallow.
func (h *HoldTracker) Press(now time.Time) KeyAction {
	if h.start.IsZero() || now.Sub(h.last) > h.gap {
		h.start, h.last, h.fired = now, now, false
		return KeyNewline
	}

	h.last = now
	if h.fired {
		return KeySwallow
	}
	if now.Sub(h.start) > h.threshold {
		h.fired = true
		return KeySubmit
	}
	return KeySwallow
}

// Reset forgets the current press, e.g. after any other key.
func (h *HoldTracker) Reset() {
	h.start, h.last, h.fired = time.Time{}, time.Time{}, false
}
