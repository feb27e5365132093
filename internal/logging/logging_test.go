// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chatptq.log")

	logger, err := New(Options{Level: "debug", Path: path})
	require.NoError(t, err)
	logger.Debug("hello from test")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := New(Options{Level: "warn", Format: "json", Path: path})
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "none", Fingerprint(""))
	fp := Fingerprint("sk-secret")
	assert.Len(t, fp, 8)
	assert.Equal(t, fp, Fingerprint("sk-secret"))
	assert.NotEqual(t, fp, Fingerprint("sk-other"))
}

func TestSecret_NeverContainsKey(t *testing.T) {
	f := Secret("api_key", "sk-very-secret")
	assert.False(t, strings.Contains(f.String, "sk-very-secret"))
	assert.Contains(t, f.String, "len=14")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
