// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatptq/internal/util"
)

// maxCompletions is the number of completion rows shown at once.
const maxCompletions = 6

// View renders the chat view.
func (m Model) View() string {
	parts := []string{
		m.renderHeader(),
		m.viewport.View(),
	}
	if m.completion.Visible {
		parts = append(parts, m.renderCompletions())
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("chatptq")
	meta := m.theme.HeaderMeta.Render(fmt.Sprintf(" %s · %s", m.cfg.GPTName, m.cfg.Model))
	width := max(m.width, 1)
	return m.theme.Header.Width(width).MaxWidth(width).Render(brand + meta)
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) renderInput() string {
	prompt := "  "
	if m.sending {
		prompt = m.spinner.View() + " "
	}
	box := lipgloss.JoinHorizontal(lipgloss.Top, prompt, m.input.View())
	return m.theme.InputContainer.Width(max(m.width, 1)).Render(box)
}

func (m Model) renderCompletions() string {
	var rows []string
	items := m.completion.Completions
	start := 0
	if m.completion.Selected >= maxCompletions {
		start = m.completion.Selected - maxCompletions + 1
	}
	end := min(len(items), start+maxCompletions)

	for i := start; i < end; i++ {
		c := items[i]
		display := c.Display
		if display == "" {
			display = c.Value
		}
		row := m.theme.CompletionItem.Render(display)
		if i == m.completion.Selected {
			row = m.theme.CompletionSelected.Render(display)
		}
		if c.Description != "" {
			row += "  " + m.theme.CompletionDesc.Render(util.Truncate(c.Description, 40))
		}
		rows = append(rows, row)
	}
	if len(items) > end {
		rows = append(rows, m.theme.CompletionDesc.Render(fmt.Sprintf("… %d more", len(items)-end)))
	}
	return m.theme.CompletionPopup.Render(strings.Join(rows, "\n"))
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	width := max(m.width, 1)

	text, style := SendHint(m.cfg.FastSendMode, m.cfg.FastSendLongPressMS), m.theme.ShortcutDesc
	switch {
	case m.status != "" && m.statusErr:
		text, style = util.SingleLine(m.status), m.theme.ErrorStyle
	case m.status != "":
		text, style = util.SingleLine(m.status), m.theme.InfoStyle
	case m.sending:
		text, style = m.cfg.GPTName+" is typing…", m.theme.ThinkingText
	}

	var right []string
	if m.cfg.EnableSystemProxy {
		right = append(right, m.theme.StatusProxy.Render("system proxy"))
	} else if !m.cfg.UserProxy.Direct() {
		right = append(right, m.theme.StatusProxy.Render("proxy "+m.cfg.UserProxy.String()))
	}
	if m.cfg.APIKey == "" {
		right = append(right, m.theme.StatusKeyBad.Render("no API key"))
	} else {
		right = append(right, m.theme.StatusKeyOK.Render("key set"))
	}
	right = append(right, m.theme.ShortcutKey.Render("F1")+m.theme.ShortcutDesc.Render(" help"))
	rightStr := strings.Join(right, "  ")

	avail := width - lipgloss.Width(rightStr) - 3
	left := style.Render(util.Truncate(text, max(avail, 0)))
	gap := width - lipgloss.Width(left) - lipgloss.Width(rightStr) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + rightStr)
}
