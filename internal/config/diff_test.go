// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/chatptq/internal/netclient"
)

func TestDiff_NilOldIsEverything(t *testing.T) {
	assert.Equal(t, AllGroups, Diff(nil, Default()))
}

func TestDiff_Equal(t *testing.T) {
	cfg := Default()
	assert.True(t, Diff(&cfg, cfg).Empty())
}

func TestDiff_PerGroup(t *testing.T) {
	base := Default()

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   []Group
	}{
		{"autostart", func(c *AppConfig) { c.AutoStart = true }, []Group{GroupAutoStart}},
		{"api key", func(c *AppConfig) { c.APIKey = "k" }, []Group{GroupAPIKey}},
		{"user proxy", func(c *AppConfig) { c.UserProxy = netclient.Proxy{Host: "h", Port: 1} }, []Group{GroupUserProxy}},
		{"system proxy", func(c *AppConfig) { c.EnableSystemProxy = true }, []Group{GroupSystemProxy}},
		{"model", func(c *AppConfig) { c.Model = "gpt-4o" }, []Group{GroupEndpoint}},
		{"display only", func(c *AppConfig) { c.GPTName = "x"; c.FastSendMode = FastSendNone }, nil},
		{"two groups", func(c *AppConfig) { c.APIKey = "k"; c.BaseURL = "http://x" }, []Group{GroupAPIKey, GroupEndpoint}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			tt.mutate(&next)
			assert.Equal(t, tt.want, Diff(&base, next).List())
		})
	}
}

func TestGroups_String(t *testing.T) {
	g := Groups(GroupAPIKey) | Groups(GroupEndpoint)
	assert.Equal(t, "api_key,endpoint", g.String())
	assert.True(t, g.Has(GroupAPIKey))
	assert.False(t, g.Has(GroupAutoStart))
}
