// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - Command suggestion for typo correction.
package cli

import (
	"strings"
)

// validCommands lists every subcommand and alias.
var validCommands = []string{
	"tui",
	"ask",
	"chat",
	"history",
	"clear",
	"config",
	"export",
	"version",
	"help",
	// Aliases
	"log",
	"reset",
	"cfg",
}

// SuggestCommand returns the closest valid command to input, or "" when
// nothing is close or input is already valid. The allowed edit distance grows
// with input length, up to 3.
func SuggestCommand(input string) string {
	in := []rune(strings.ToLower(input))
	if len(in) < 2 {
		return ""
	}
	maxDistance := min(1+len(in)/4, 3)

	best, bestDistance := "", maxDistance+1
	for _, cmd := range validCommands {
		d := editDistance(in, []rune(cmd))
		if d == 0 {
			return ""
		}
		if d < bestDistance {
			best, bestDistance = cmd, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance between a and b, in runes.
func editDistance(a, b []rune) int {
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			diag, row[j] = row[j], min(row[j]+1, row[j-1]+1, diag+cost)
		}
	}
	return row[len(b)]
}
