// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsExternalEdit(t *testing.T) {
	store, reg, path := newTestStore(t, nil)
	require.NoError(t, store.Open())

	w, err := NewWatcher(store, 20*time.Millisecond, func(err error) { t.Logf("watch error: %v", err) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	edited := store.Current()
	edited.APIKey = "edited-on-disk"
	require.NoError(t, Save(edited, path))

	assert.Eventually(t, func() bool {
		return store.Current().APIKey == "edited-on-disk"
	}, 3*time.Second, 20*time.Millisecond)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	assert.Equal(t, "edited-on-disk", reg.apiKey)
}
