// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Transcript listing and clearing.
//
// Command: history
// Short:   Print the saved conversation
// Aliases: log
//
// Command: clear
// Short:   Clear the saved conversation
// Aliases: reset
//
// Examples:
//   chatptq history
//   chatptq history -n 4 --full
//   chatptq --json history
//   chatptq clear --yes
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/ui/styles"
	"github.com/jeranaias/chatptq/internal/util"
)

// =============================================================================
// HISTORY
// =============================================================================

// HandleHistory prints the saved conversation.
func HandleHistory(_ context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "full")

	limit, err := p.FlagIntOrDefault("limit", 0)
	if err != nil {
		return err
	}
	if limit == 0 {
		if limit, err = p.FlagIntOrDefault("n", 0); err != nil {
			return err
		}
	}
	if limit < 0 {
		return NewValidationErrorWithExample("--limit", fmt.Sprint(limit), "must not be negative", "--limit 10")
	}

	sess := env.OpenSession()
	convs := sess.Conversations()
	start := 0
	if limit > 0 && limit < len(convs) {
		start = len(convs) - limit
	}

	if args.JSON {
		entries := make([]HistoryEntry, 0, len(convs)-start)
		for i := start; i < len(convs); i++ {
			c := convs[i]
			entries = append(entries, HistoryEntry{
				Index:   i + 1,
				Role:    c.Message.Role.String(),
				Content: c.Message.Content,
				Success: c.Success,
				Tokens:  c.TokenUsage,
			})
		}
		return NewJSONResponse("history", entries).Print(env.Out)
	}

	if len(convs) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("No saved conversation."))
		return nil
	}

	gptName := env.Store.Current().GPTName
	width := GetTerminalWidth()
	for i := start; i < len(convs); i++ {
		writeEntry(env.Out, i, len(convs), convs[i], gptName, width, p.BoolFlag("full"))
	}
	return nil
}

// entryLabel is "You", the assistant name or the role, with token usage and
// a failure marker.
func entryLabel(c model.Conversation, gptName string) string {
	var label string
	switch c.Message.Role {
	case model.RoleUser:
		label = UserStyle.Render("You")
	case model.RoleAssistant:
		label = AssistantStyle.Render(gptName)
	default:
		label = DimStyle.Render(c.Message.Role.String())
	}
	if n, ok := c.Tokens(); ok {
		label += DimStyle.Render(fmt.Sprintf(" (%d tks)", n))
	}
	if !c.Success {
		label += " " + ErrorStyle.Render(styles.StatusIndicators.Error+" not sent")
	}
	return label
}

// writeEntry prints one transcript entry: a "[i/size] label" line, then the
// content indented, cut to a single line unless full.
func writeEntry(w io.Writer, i, size int, c model.Conversation, gptName string, width int, full bool) {
	fmt.Fprintf(w, "%s %s\n", DimStyle.Render(fmt.Sprintf("[%d/%d]", i+1, size)), entryLabel(c, gptName))

	if full {
		for _, line := range strings.Split(c.Message.Content, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		return
	}
	fmt.Fprintf(w, "  %s\n", util.Truncate(util.SingleLine(c.Message.Content), width-2))
}

// =============================================================================
// CLEAR
// =============================================================================

// HandleClear empties the saved conversation. Without --yes it asks for
// confirmation on a terminal and refuses otherwise.
func HandleClear(_ context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "yes", "y")

	sess := env.OpenSession()
	n := sess.Len()
	if n == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("Nothing to clear."))
		return nil
	}

	if !p.BoolFlag("yes") && !p.BoolFlag("y") {
		if !env.stdinTTY() {
			return ErrMissingArgument("--yes", "chatptq clear --yes")
		}
		fmt.Fprintf(env.Out, "Clear %d entries? [y/N] ", n)
		answer, _ := bufio.NewReader(env.In).ReadString('\n')
		if ok, err := ParseBoolString(answer); err != nil || !ok {
			fmt.Fprintln(env.Out, "Cancelled.")
			return nil
		}
	}

	sess.Clear()
	if err := sess.Save(); err != nil {
		return NewCommandError("clear", "save", "could not save the empty conversation", err)
	}
	if !args.Quiet {
		fmt.Fprintf(env.Out, "%s Cleared %d entries.\n", SuccessStyle.Render(styles.StatusIndicators.Success), n)
	}
	return nil
}
