// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/ui/styles"
)

// =============================================================================
// MARKDOWN
// =============================================================================

// markdown renders assistant replies with Glamour. Rendered output is cached
// per content until the wrap width changes.
type markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdown(style string) *markdown {
	return &markdown{style: style, cache: make(map[string]string)}
}

// Render returns content rendered for width columns, or content unchanged
// when rendering fails.
func (md *markdown) Render(content string, width int) string {
	if width < 10 {
		width = 10
	}
	if width != md.width || md.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(md.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		md.renderer, md.width = r, width
		md.cache = make(map[string]string)
	}

	if out, ok := md.cache[content]; ok {
		return out
	}
	out, err := md.renderer.Render(content)
	if err != nil {
		return content
	}
	out = strings.Trim(out, "\n")
	md.cache[content] = out
	return out
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// entryLabel is the header line of a transcript entry: speaker, token usage
// and a failure flag.
func entryLabel(theme *styles.Theme, c model.Conversation, gptName string) string {
	var label string
	switch c.Message.Role {
	case model.RoleAssistant:
		label = theme.AssistantLabel.Render(gptName)
	case model.RoleUser:
		label = theme.UserLabel.Render("You")
	default:
		label = theme.SystemLabel.Render(string(c.Message.Role))
	}
	if n, ok := c.Tokens(); ok {
		label += theme.EntryMeta.Render(fmt.Sprintf(" (%d tks)", n))
	}
	if !c.Success {
		label += " " + theme.FailedBadge.Render(styles.StatusIndicators.Error+" not sent")
	}
	return label
}

// renderTranscript renders every entry with its n/size position.
func renderTranscript(theme *styles.Theme, md *markdown, convs []model.Conversation, gptName string, width int) string {
	if len(convs) == 0 {
		return theme.EntryMeta.Render(fmt.Sprintf("Chat with %s. Type /help for commands.", gptName))
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	var b strings.Builder
	size := len(convs)
	for i, c := range convs {
		label := entryLabel(theme, c, gptName)
		pos := theme.EntryMeta.Render(fmt.Sprintf("%d/%d", i+1, size))
		gap := width - lipgloss.Width(label) - lipgloss.Width(pos)
		if gap < 1 {
			gap = 1
		}
		b.WriteString(label + strings.Repeat(" ", gap) + pos + "\n")

		if c.Message.IsAssistant() {
			b.WriteString(md.Render(c.Message.Content, contentWidth))
		} else {
			b.WriteString(theme.UserText.Width(contentWidth).Render(c.Message.Content))
		}
		b.WriteString("\n")
		if i < size-1 {
			b.WriteString(theme.Separator.Render(strings.Repeat("─", max(width, 1))) + "\n")
		}
	}
	return b.String()
}
