// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
)

// HelpText renders the command list as markdown, or the details of a single
// command when topic names one.
func (r *Registry) HelpText(topic string) (string, error) {
	var b strings.Builder

	if topic != "" {
		cmd := r.Get(topic)
		if cmd == nil {
			return "", fmt.Errorf("%w: %s", ErrUnknownCommand, topic)
		}
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", cmd.Name, cmd.Description)
		fmt.Fprintf(&b, "Usage: `%s`\n", usage(cmd))
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&b, "\nAliases: %s\n", strings.Join(cmd.Aliases, ", "))
		}
		for _, arg := range cmd.Args {
			desc := arg.Description
			if len(arg.Values) > 0 {
				desc = strings.Join(arg.Values, ", ")
			}
			req := ""
			if arg.Required {
				req = " (required)"
			}
			fmt.Fprintf(&b, "- `%s`%s: %s\n", arg.Name, req, desc)
		}
		return b.String(), nil
	}

	groups := r.ByCategory()
	for _, cat := range Categories {
		cmds := groups[cat]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", cat)
		for _, cmd := range cmds {
			fmt.Fprintf(&b, "- `%s` %s\n", usage(cmd), cmd.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("Start a message with `//` to send a literal `/`.\n")
	return b.String(), nil
}

func usage(cmd *Command) string {
	if cmd.Usage != "" {
		return cmd.Usage
	}
	return cmd.Name
}
