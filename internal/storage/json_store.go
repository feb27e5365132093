// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/logging"
	"github.com/jeranaias/chatptq/internal/util"
)

// JSONFileStore keeps every key in one indented JSON document. Each Set
// rewrites the whole file atomically.
type JSONFileStore struct {
	mu     sync.Mutex
	path   string
	data   map[string]json.RawMessage
	closed bool
	logger *zap.Logger
}

// OpenJSONFile opens or creates the store at path. A file that is not a JSON
// object is moved aside to path.corrupt-<unix> and the store starts empty.
func OpenJSONFile(path string, logger *zap.Logger) (*JSONFileStore, error) {
	s := &JSONFileStore{
		path:   path,
		data:   make(map[string]json.RawMessage),
		logger: logging.OrNop(logger).Named("storage"),
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, &StoreError{Op: "open", Err: err}
	case len(raw) == 0:
		return s, nil
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, backup); renameErr != nil {
			return nil, &StoreError{Op: "open", Err: fmt.Errorf("corrupt store and backup failed: %w", renameErr)}
		}
		s.logger.Warn("data store was corrupt, starting empty",
			zap.String("path", path), zap.String("backup", backup), zap.Error(err))
		s.data = make(map[string]json.RawMessage)
	}
	return s, nil
}

// Path returns the backing file.
func (s *JSONFileStore) Path() string {
	return s.path
}

// Get implements BlobStore.
func (s *JSONFileStore) Get(key string, dst any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, &StoreError{Op: "get", Key: key, Err: ErrClosed}
	}
	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, &StoreError{Op: "decode", Key: key, Err: err}
	}
	return true, nil
}

// Set implements BlobStore.
func (s *JSONFileStore) Set(key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return &StoreError{Op: "encode", Key: key, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &StoreError{Op: "set", Key: key, Err: ErrClosed}
	}
	prev, had := s.data[key]
	s.data[key] = encoded
	if err := s.flushLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return &StoreError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete implements BlobStore.
func (s *JSONFileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &StoreError{Op: "delete", Key: key, Err: ErrClosed}
	}
	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.flushLocked(); err != nil {
		s.data[key] = prev
		return &StoreError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Keys implements BlobStore.
func (s *JSONFileStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &StoreError{Op: "keys", Err: ErrClosed}
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements BlobStore.
func (s *JSONFileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *JSONFileStore) flushLocked() error {
	// MarshalIndent on a map sorts keys, which keeps diffs of the file small.
	out, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(s.path, out, 0o600)
}
