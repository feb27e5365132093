// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jeranaias/chatptq/internal/config"
	"github.com/jeranaias/chatptq/internal/session"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completer offers tab completions for slash commands and their arguments.
type Completer struct {
	registry *Registry

	// EntriesFn returns the current transcript length, for entry numbers.
	EntriesFn func() int
}

// NewCompleter creates a completer over registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for the text before cursor (a byte offset).
// Input that is not a slash command has none.
func (c *Completer) Complete(input string, cursor int) []Completion {
	if cursor >= 0 && cursor < len(input) {
		input = input[:cursor]
	}
	input = strings.TrimLeftFunc(input, unicode.IsSpace)
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	tokens := splitCommandLine(input)
	fresh := strings.HasSuffix(input, " ")

	if len(tokens) == 1 && !fresh {
		return c.completeCommands(tokens[0])
	}

	cmd := c.registry.Get(tokens[0])
	if cmd == nil {
		return nil
	}

	// The last token is the partial argument unless a space follows it.
	argIndex, partial := len(tokens)-1, ""
	if !fresh {
		argIndex, partial = len(tokens)-2, tokens[len(tokens)-1]
	}
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}
	return c.completeArg(cmd.Args[argIndex], partial)
}

// completeCommands matches command names and aliases. Aliases rank just
// below names of the same length.
func (c *Completer) completeCommands(partial string) []Completion {
	var out []Completion
	for _, cmd := range c.registry.All() {
		if cmd.Hidden {
			continue
		}
		if hasFoldPrefix(cmd.Name, partial) {
			out = append(out, Completion{
				Value:       cmd.Name,
				Display:     cmd.Name,
				Description: cmd.Description,
				Score:       matchScore(cmd.Name, partial),
			})
		}
		for _, alias := range cmd.Aliases {
			if hasFoldPrefix(alias, partial) {
				out = append(out, Completion{
					Value:       alias,
					Display:     alias + " -> " + cmd.Name,
					Description: cmd.Description,
					Score:       matchScore(alias, partial) - 10,
				})
			}
		}
	}
	return ranked(out)
}

// completeArg dispatches on the argument type.
func (c *Completer) completeArg(arg ArgDef, partial string) []Completion {
	switch arg.Type {
	case ArgTypeEnum:
		return ranked(prefixMatches(arg.Values, partial))
	case ArgTypeConfig:
		return ranked(prefixMatches(config.Keys(), partial))
	case ArgTypeLanguage:
		return c.completeLanguages(partial)
	case ArgTypeEntry:
		return c.completeEntries(partial)
	case ArgTypeCommand:
		var names []string
		for _, cmd := range c.registry.All() {
			if !cmd.Hidden {
				names = append(names, strings.TrimPrefix(cmd.Name, "/"))
			}
		}
		return ranked(prefixMatches(names, partial))
	}
	return nil
}

// completeLanguages matches translation targets by tag or English name.
func (c *Completer) completeLanguages(partial string) []Completion {
	var out []Completion
	for _, tag := range session.TranslationTargets {
		value, name := tag.String(), session.LanguageName(tag)
		if !hasFoldPrefix(value, partial) && !hasFoldPrefix(name, partial) {
			continue
		}
		out = append(out, Completion{
			Value:       value,
			Display:     value,
			Description: name,
			Score:       matchScore(value, partial),
		})
	}
	return ranked(out)
}

// completeEntries offers "last" and then entry numbers, newest first. The
// order is kept as is.
func (c *Completer) completeEntries(partial string) []Completion {
	values := []string{"last"}
	if c.EntriesFn != nil {
		for n := c.EntriesFn(); n >= 1; n-- {
			values = append(values, strconv.Itoa(n))
		}
	}
	return prefixMatches(values, partial)
}

// =============================================================================
// MATCHING AND RANKING
// =============================================================================

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// prefixMatches returns the values starting with partial, in input order.
func prefixMatches(values []string, partial string) []Completion {
	var out []Completion
	for _, v := range values {
		if hasFoldPrefix(v, partial) {
			out = append(out, Completion{Value: v, Display: v, Score: matchScore(v, partial)})
		}
	}
	return out
}

// matchScore ranks an exact match first, then shorter values.
func matchScore(value, partial string) int {
	if strings.EqualFold(value, partial) {
		return 200
	}
	n := utf8.RuneCountInString(value)
	score := 100 - n/2
	if hasFoldPrefix(value, partial) {
		score += 70 - n
	}
	return score
}

// ranked sorts by score, best first, then by value.
func ranked(cs []Completion) []Completion {
	slices.SortStableFunc(cs, func(a, b Completion) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return strings.Compare(a.Value, b.Value)
	})
	return cs
}

// =============================================================================
// COMPLETION NAVIGATION
// =============================================================================

// CompletionState is the popup shown while completing: the input it was
// computed for, the candidates and the highlighted one.
type CompletionState struct {
	OriginalInput string
	Completions   []Completion
	Selected      int // -1 when nothing is highlighted
	Visible       bool
}

// NewCompletionState returns an empty, hidden state.
func NewCompletionState() *CompletionState {
	return &CompletionState{Selected: -1}
}

// Update shows completions for input with the first one highlighted.
func (cs *CompletionState) Update(input string, completions []Completion) {
	cs.OriginalInput = input
	cs.Completions = completions
	cs.Selected = 0
	cs.Visible = len(completions) > 0
}

// Next highlights the following completion, wrapping around.
func (cs *CompletionState) Next() { cs.move(1) }

// Prev highlights the preceding completion, wrapping around.
func (cs *CompletionState) Prev() { cs.move(-1) }

func (cs *CompletionState) move(delta int) {
	n := len(cs.Completions)
	if n == 0 {
		return
	}
	cs.Selected = ((cs.Selected+delta)%n + n) % n
}

// Accept returns the highlighted value, the first one when nothing is
// highlighted, or "" when there are no completions.
func (cs *CompletionState) Accept() string {
	if sel := cs.GetSelected(); sel != nil {
		return sel.Value
	}
	if len(cs.Completions) > 0 {
		return cs.Completions[0].Value
	}
	return ""
}

// Clear hides the popup and forgets the candidates.
func (cs *CompletionState) Clear() {
	*cs = CompletionState{Selected: -1}
}

// GetSelected returns the highlighted completion, or nil.
func (cs *CompletionState) GetSelected() *Completion {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		return nil
	}
	return &cs.Completions[cs.Selected]
}
