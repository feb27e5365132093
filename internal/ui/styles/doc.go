// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chatptq TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - Primary accent, assistant entries
  - Cyan - Brand color, user entries, prompts
  - Emerald - Success states
  - Amber - Warnings, proxy indicator
  - Rose - Errors and failed entries

# Theme System (theme.go)

The Theme struct holds every style the chat view renders with, plus the
Glamour style matching the terminal background:

	theme := styles.NewTheme()
	renderer, _ := glamour.NewTermRenderer(glamour.WithStandardStyle(theme.GlamourStyle()))
*/
package styles
