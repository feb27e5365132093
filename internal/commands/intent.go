// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "golang.org/x/text/language"

// LastEntry is the index value meaning "the last transcript entry".
const LastEntry = -1

// Intent is something the user asked the application to do.
type Intent interface {
	intent()
}

// Submit sends Text as a new user message.
type Submit struct {
	Text string
}

// Clear empties the transcript.
type Clear struct{}

// Retranslate asks for the transcript entry at Index (0-based, or LastEntry)
// to be translated into Lang.
type Retranslate struct {
	Index int
	Lang  language.Tag
}

// TranslateInput asks for Text to be translated into Lang.
type TranslateInput struct {
	Lang language.Tag
	Text string
}

// UpdateConfig sets a dotted config key.
type UpdateConfig struct {
	Key   string
	Value string
}

// ShowConfig displays the config, or a single key when Key is set.
type ShowConfig struct {
	Key string
}

// Copy copies the transcript entry at Index (0-based, or LastEntry).
type Copy struct {
	Index int
}

// Help shows the command list, or a single command when Topic is set.
type Help struct {
	Topic string
}

// Quit exits the application.
type Quit struct{}

func (Submit) intent()         {}
func (Clear) intent()          {}
func (Retranslate) intent()    {}
func (TranslateInput) intent() {}
func (UpdateConfig) intent()   {}
func (ShowConfig) intent()     {}
func (Copy) intent()           {}
func (Help) intent()           {}
func (Quit) intent()           {}

// ResolveIndex converts an intent index to a transcript position for a
// transcript of n entries. It reports false when the position is out of range.
func ResolveIndex(index, n int) (int, bool) {
	if index == LastEntry {
		index = n - 1
	}
	return index, index >= 0 && index < n
}
