// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/jeranaias/chatptq/internal/logging"
	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/storage"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Gateway performs one chat completion round trip. *cloud.Client implements it.
type Gateway interface {
	Send(ctx context.Context, messages []model.Message) (*model.ChatResponse, error)
}

// Listener receives session events. Nil callbacks are skipped.
type Listener struct {
	// TranscriptChanged is called exactly once per transcript mutation with
	// a copy of the new transcript.
	TranscriptChanged func(convs []model.Conversation)

	// SendingChanged is called when a turn starts (true) and ends (false).
	SendingChanged func(sending bool)

	// Notify carries a transient, user-visible failure message.
	Notify func(msg string)
}

type eventKind int

const (
	evTranscript eventKind = iota
	evSending
	evNotify
)

type event struct {
	kind    eventKind
	convs   []model.Conversation
	sending bool
	msg     string
}

func (ev event) deliver(l Listener) {
	switch ev.kind {
	case evTranscript:
		if l.TranscriptChanged != nil {
			l.TranscriptChanged(ev.convs)
		}
	case evSending:
		if l.SendingChanged != nil {
			l.SendingChanged(ev.sending)
		}
	case evNotify:
		if l.Notify != nil {
			l.Notify(ev.msg)
		}
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the transcript state machine. All methods are safe for
// concurrent use; mutations are serialized.
type Session struct {
	mu            sync.Mutex
	conversations []model.Conversation
	submitting    bool
	active        *Turn
	epoch         uint64
	version       uint64 // bumped on every mutation
	savedVersion  uint64

	// emitMu keeps listener calls in mutation order without holding mu.
	emitMu   sync.Mutex
	listener Listener

	gateway  Gateway
	store    storage.BlobStore
	key      string
	logger   *zap.Logger
	inflight sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithListener sets the event listener.
func WithListener(l Listener) Option {
	return func(s *Session) { s.listener = l }
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithKey overrides the blob store key (default model.SessionKey).
func WithKey(key string) Option {
	return func(s *Session) { s.key = key }
}

// New creates an empty session that is not backed by a store.
func New(gw Gateway, opts ...Option) *Session {
	s := &Session{gateway: gw, key: model.SessionKey}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger).Named("session")
	return s
}

// SetListener replaces the event listener.
func (s *Session) SetListener(l Listener) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.listener = l
}

// commit releases mu and delivers evs in order. It must be called with mu
// held; taking emitMu before releasing mu keeps event order equal to
// mutation order across goroutines. A panicking listener is logged and the
// remaining events are still delivered, so state changes made under mu are
// never left half announced.
func (s *Session) commit(evs []event) {
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	for _, ev := range evs {
		s.deliver(ev)
	}
}

func (s *Session) deliver(ev event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session listener panicked", zap.Int("event", int(ev.kind)), zap.Any("panic", r))
		}
	}()
	ev.deliver(s.listener)
}

// transcriptEvent must be called with mu held.
func (s *Session) transcriptEvent() event {
	return event{kind: evTranscript, convs: model.Clone(s.conversations)}
}

// =============================================================================
// STATE ACCESS
// =============================================================================

// Conversations returns a copy of the transcript.
func (s *Session) Conversations() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Clone(s.conversations)
}

// Len returns the number of transcript entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// Submitting reports whether a turn is in flight.
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Epoch returns the transcript generation. It changes on every Clear.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// IsDirty reports whether the transcript changed since the last Save.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version != s.savedVersion
}

// =============================================================================
// INTENTS
// =============================================================================

// Submit starts a turn for raw and runs the round trip in the background.
// It returns a *ValidationError for blank input and nil (doing nothing) while
// another turn is in flight. Cancelling ctx does not cancel the request.
func (s *Session) Submit(ctx context.Context, raw string) error {
	turn, err := s.Begin(raw)
	if err != nil || turn == nil {
		return err
	}
	s.run(ctx, turn)
	return nil
}

// Retranslate submits a request to translate the entry at index into lang.
func (s *Session) Retranslate(ctx context.Context, index int, lang language.Tag) error {
	turn, err := s.BeginRetranslate(index, lang)
	if err != nil || turn == nil {
		return err
	}
	s.run(ctx, turn)
	return nil
}

// BeginRetranslate is Begin for a translation of the entry at index.
func (s *Session) BeginRetranslate(index int, lang language.Tag) (*Turn, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.conversations) {
		n := len(s.conversations)
		err := fmt.Errorf("%w: %d (transcript has %d entries)", ErrInvalidIndex, index, n)
		s.commit([]event{{kind: evNotify, msg: err.Error()}})
		return nil, err
	}
	content := s.conversations[index].Message.Content
	s.mu.Unlock()

	return s.Begin(TranslatePrompt(content, lang))
}

// Wait blocks until no background turn is running.
func (s *Session) Wait() {
	s.inflight.Wait()
}

func (s *Session) run(ctx context.Context, turn *Turn) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic while completing turn",
					zap.String("turn", turn.ID), zap.Any("panic", r))
			}
		}()
		s.Complete(turn.Send(context.WithoutCancel(ctx), s.gateway))
	}()
}

// Clear empties the transcript. A turn in flight keeps the session in the
// submitting state, but its result is discarded when it arrives.
func (s *Session) Clear() {
	s.mu.Lock()
	s.conversations = nil
	s.epoch++
	s.version++
	s.logger.Info("transcript cleared", zap.Uint64("epoch", s.epoch), zap.Bool("in_flight", s.submitting))
	s.commit([]event{s.transcriptEvent()})
}
