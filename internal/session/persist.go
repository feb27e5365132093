// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"

	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/storage"
)

// =============================================================================
// PERSISTENCE BOUNDARY
// =============================================================================

// Open creates a session backed by store and loads the persisted transcript.
// An absent transcript starts empty. A malformed one also starts empty and
// is reported: the returned error is informational and the session is always
// usable.
func Open(store storage.BlobStore, gw Gateway, opts ...Option) (*Session, error) {
	s := New(gw, opts...)
	s.store = store
	if store == nil {
		return s, nil
	}

	saved, err := storage.GetOrDefault(store, s.key, model.Session{})
	if err == nil && !saved.Valid() {
		err = errors.New("transcript contains entries with unknown roles")
	}
	if err != nil {
		perr := &PersistenceError{Op: "load", Err: err}
		s.logger.Warn("starting with an empty transcript", zap.Error(perr))
		return s, perr
	}

	s.conversations = saved.Conversations
	s.logger.Info("transcript loaded", zap.Int("entries", len(saved.Conversations)))
	return s, nil
}

// Save persists the transcript verbatim. Failures are reported through
// Notify and returned; the in-memory transcript is unaffected.
func (s *Session) Save() error {
	s.mu.Lock()
	if s.store == nil {
		s.mu.Unlock()
		return nil
	}
	snapshot := model.Session{Conversations: model.Clone(s.conversations)}
	if snapshot.Conversations == nil {
		snapshot.Conversations = []model.Conversation{}
	}
	version := s.version
	s.mu.Unlock()

	if err := s.store.Set(s.key, snapshot); err != nil {
		perr := &PersistenceError{Op: "save", Err: err}
		s.logger.Warn("failed to save transcript", zap.Error(perr))
		s.mu.Lock()
		s.commit([]event{{kind: evNotify, msg: perr.Error()}})
		return perr
	}

	s.mu.Lock()
	if version > s.savedVersion {
		s.savedVersion = version
	}
	s.mu.Unlock()
	s.logger.Debug("transcript saved", zap.Int("entries", len(snapshot.Conversations)))
	return nil
}

// Close waits for the turn in flight, if any, and saves the transcript.
func (s *Session) Close() error {
	s.Wait()
	return s.Save()
}
