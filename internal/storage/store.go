// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Backend names a BlobStore implementation.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// BlobStore is a persistent key-value store of JSON-encodable records.
type BlobStore interface {
	// Get decodes the value stored under key into dst. It reports false when
	// the key is absent, in which case dst is untouched.
	Get(key string, dst any) (bool, error)

	// Set encodes value and stores it under key, replacing any previous value.
	Set(key string, value any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Keys lists stored keys in sorted order.
	Keys() ([]string, error)

	// Close releases the store.
	Close() error
}

// StoreError describes a failed store operation.
type StoreError struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// GetOrDefault returns the value stored under key, or def when the key is
// absent. When the stored value cannot be decoded def is returned together
// with the error so callers can fall back and still report the problem.
func GetOrDefault[T any](s BlobStore, key string, def T) (T, error) {
	var v T
	found, err := s.Get(key, &v)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

// ParseBackend converts a backend name, case-insensitively.
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case "", BackendJSON:
		return BackendJSON, nil
	case BackendSQLite:
		return BackendSQLite, nil
	}
	return "", fmt.Errorf("%w: %q (want json or sqlite)", ErrUnknownBackend, name)
}

// Open opens the store for backend inside dir.
func Open(backend Backend, dir string, logger *zap.Logger) (BlobStore, error) {
	switch backend {
	case BackendJSON, "":
		return OpenJSONFile(filepath.Join(dir, "datastore.json"), logger)
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "datastore.db"), logger)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}
