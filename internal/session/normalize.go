// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"regexp"
	"strings"

	"github.com/jeranaias/chatptq/internal/model"
)

// blankRun matches two or more line breaks in a row, each optionally preceded
// by a carriage return, with only spaces or tabs between them.
var blankRun = regexp.MustCompile(`\r?\n(?:[ \t]*\r?\n)+`)

// NormalizeInput collapses runs of blank lines into a single newline and
// trims surrounding whitespace.
func NormalizeInput(s string) string {
	return strings.TrimSpace(blankRun.ReplaceAllString(s, "\n"))
}

// BuildRequest returns the messages of the successful entries, in order.
// Failed entries never go upstream again.
func BuildRequest(convs []model.Conversation) []model.Message {
	msgs := make([]model.Message, 0, len(convs))
	for _, c := range convs {
		if c.Success {
			msgs = append(msgs, c.Message)
		}
	}
	return msgs
}
