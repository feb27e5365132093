// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the key-value blob store chatptq persists its
// transcript into.
//
// Values are JSON-encoded records addressed by a string key. Two backends
// share the BlobStore interface:
//
//   - JSONFileStore: one human-readable JSON document (default)
//   - SQLiteStore: a kv table in a SQLite database (modernc.org/sqlite)
//
// # Usage
//
//	store, err := storage.Open(storage.BackendJSON, dataDir, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	sess, err := storage.GetOrDefault(store, model.SessionKey, model.Session{})
//	err = store.Set(model.SessionKey, sess)
//
// # Storage Location
//
// Files live in ~/.chatptq/ (datastore.json or datastore.db).
package storage
