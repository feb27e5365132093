// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/chatptq/internal/model"
)

func openBoth(t *testing.T) map[string]BlobStore {
	t.Helper()
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	js, err := OpenJSONFile(filepath.Join(dir, "datastore.json"), logger)
	require.NoError(t, err)
	sq, err := OpenSQLite(filepath.Join(dir, "datastore.db"), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		js.Close()
		sq.Close()
	})
	return map[string]BlobStore{"json": js, "sqlite": sq}
}

func TestBlobStore_RoundTrip(t *testing.T) {
	for name, store := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			sess := model.Session{Conversations: []model.Conversation{
				model.NewConversation(model.NewUserMessage("hi")).WithTokenUsage(4),
				model.NewConversation(model.NewAssistantMessage("hello")).WithTokenUsage(9),
			}}
			require.NoError(t, store.Set(model.SessionKey, sess))

			var got model.Session
			found, err := store.Get(model.SessionKey, &got)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, sess, got)
		})
	}
}

func TestBlobStore_MissingKey(t *testing.T) {
	for name, store := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			var got model.Session
			found, err := store.Get("nope", &got)
			require.NoError(t, err)
			assert.False(t, found)

			assert.NoError(t, store.Delete("nope"))
		})
	}
}

func TestBlobStore_OverwriteAndDelete(t *testing.T) {
	for name, store := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set("b", 1))
			require.NoError(t, store.Set("a", 2))
			require.NoError(t, store.Set("a", 3))

			keys, err := store.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, keys)

			var n int
			_, err = store.Get("a", &n)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			require.NoError(t, store.Delete("a"))
			found, err := store.Get("a", &n)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestGetOrDefault(t *testing.T) {
	for name, store := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			def := model.Session{}

			got, err := GetOrDefault(store, model.SessionKey, def)
			require.NoError(t, err)
			assert.Empty(t, got.Conversations)

			// A value of the wrong shape falls back and reports a decode error.
			require.NoError(t, store.Set(model.SessionKey, "not a session"))
			got, err = GetOrDefault(store, model.SessionKey, def)
			require.Error(t, err)
			var se *StoreError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "decode", se.Op)
			assert.Empty(t, got.Conversations)
		})
	}
}

func TestJSONFileStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")

	s, err := OpenJSONFile(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", map[string]string{"x": "y"}))
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "k")

	s2, err := OpenJSONFile(path, nil)
	require.NoError(t, err)
	var got map[string]string
	found, err := s2.Get("k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "y", got["x"])
}

func TestJSONFileStore_CorruptFileMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datastore.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := OpenJSONFile(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestBlobStore_UseAfterClose(t *testing.T) {
	for name, store := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set("k", 1))
			require.NoError(t, store.Close())
			require.NoError(t, store.Close(), "second close is a no-op")

			var v int
			_, err := store.Get("k", &v)
			assert.ErrorIs(t, err, ErrClosed)
			assert.ErrorIs(t, store.Set("k", 2), ErrClosed)
			assert.ErrorIs(t, store.Delete("k"), ErrClosed)
			_, err = store.Keys()
			assert.ErrorIs(t, err, ErrClosed)

			var serr *StoreError
			require.ErrorAs(t, store.Set("k", 2), &serr)
			assert.Equal(t, "set", serr.Op)
		})
	}
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "datastore.db")

	s, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", []int{1, 2, 3}))
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	defer s2.Close()

	var got []int
	found, err := s2.Get("k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendJSON, b)

	b, err = ParseBackend(" SQLite ")
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, b)

	_, err = ParseBackend("redis")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(BackendSQLite, dir, nil)
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)

	_, err = Open("bogus", dir, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
