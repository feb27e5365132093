// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	require.NotNil(t, theme)
	assert.NotEmpty(t, theme.UserLabel.Render("you"))
	assert.NotEmpty(t, theme.StatusBar.Render("status"))
}

func TestGlamourStyle(t *testing.T) {
	theme := &Theme{ColorProfile: termenv.TrueColor, IsDark: true}
	assert.Equal(t, "dark", theme.GlamourStyle())

	theme.IsDark = false
	assert.Equal(t, "light", theme.GlamourStyle())

	theme.ColorProfile = termenv.Ascii
	assert.Equal(t, "notty", theme.GlamourStyle())
}

func TestLayoutMode(t *testing.T) {
	theme := NewTheme()
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{0, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		assert.Equal(t, tt.want, theme.GetLayoutMode(), "width %d", tt.width)
	}
}

func TestRenderHelpers_IncludeIndicators(t *testing.T) {
	assert.Contains(t, RenderSuccess("saved"), StatusIndicators.Success)
	assert.Contains(t, RenderError("failed"), StatusIndicators.Error)
	assert.Contains(t, RenderWarning("careful"), StatusIndicators.Warning)
	assert.Contains(t, RenderInfo("note"), StatusIndicators.Info)
	assert.Contains(t, RenderError("failed"), "failed")
}
