// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/model"
)

// Turn is one submission in flight. It is immutable once returned by Begin.
type Turn struct {
	// ID correlates the log lines of one turn.
	ID string

	// Epoch is the transcript generation the turn was started in.
	Epoch uint64

	// Index is the position of the optimistic user entry.
	Index int

	// Entry is the optimistic user entry.
	Entry model.Conversation

	// Request is the context sent upstream, including Entry.
	Request []model.Message

	started time.Time
}

// Outcome is the result of Turn.Send.
type Outcome struct {
	Turn     *Turn
	Response *model.ChatResponse
	Err      error
}

// Send performs the gateway call for the turn. It does not touch the session
// and may run on any goroutine.
func (t *Turn) Send(ctx context.Context, gw Gateway) (out Outcome) {
	out.Turn = t
	defer func() {
		if r := recover(); r != nil {
			out.Response = nil
			out.Err = fmt.Errorf("gateway panic: %v", r)
		}
	}()

	resp, err := gw.Send(ctx, t.Request)
	if err == nil && resp == nil {
		err = fmt.Errorf("gateway returned no response")
	}
	out.Response, out.Err = resp, err
	return out
}

// Begin starts a turn: it normalizes raw, appends the user entry, marks the
// session as submitting and snapshots the request. It returns (nil, nil)
// while another turn is in flight, and ErrEmptyInput for blank input. The
// caller clears its input buffer once Begin returns a turn.
func (s *Session) Begin(raw string) (*Turn, error) {
	text := NormalizeInput(raw)

	s.mu.Lock()
	if text == "" {
		s.commit([]event{{kind: evNotify, msg: ErrEmptyInput.Error()}})
		return nil, ErrEmptyInput
	}
	if s.submitting {
		s.mu.Unlock()
		s.logger.Debug("submit ignored, turn in flight")
		return nil, nil
	}

	entry := model.NewConversation(model.NewUserMessage(text))
	next := make([]model.Conversation, len(s.conversations), len(s.conversations)+2)
	copy(next, s.conversations)
	next = append(next, entry)

	s.conversations = next
	s.version++
	s.submitting = true

	turn := &Turn{
		ID:      uuid.NewString(),
		Epoch:   s.epoch,
		Index:   len(next) - 1,
		Entry:   entry,
		Request: BuildRequest(next),
		started: time.Now(),
	}
	s.active = turn

	s.logger.Info("turn started",
		zap.String("turn", turn.ID),
		zap.Uint64("epoch", turn.Epoch),
		zap.Int("context_messages", len(turn.Request)))

	s.commit([]event{
		s.transcriptEvent(),
		{kind: evSending, sending: true},
	})
	return turn, nil
}

// Complete applies the outcome of a turn. A result for a transcript that has
// since been cleared is discarded. The submitting flag is cleared exactly
// once per turn; a second Complete for the same turn is ignored.
func (s *Session) Complete(out Outcome) {
	t := out.Turn
	s.mu.Lock()
	if t == nil || t != s.active {
		s.mu.Unlock()
		s.logger.Warn("ignoring outcome for a turn that is not active")
		return
	}

	var evs []event
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic while applying turn result", zap.String("turn", t.ID), zap.Any("panic", r))
			}
			s.submitting = false
			s.active = nil
			evs = append(evs, event{kind: evSending, sending: false})
		}()

		fields := []zap.Field{zap.String("turn", t.ID), zap.Duration("duration", time.Since(t.started))}

		switch {
		case t.Epoch != s.epoch:
			s.logger.Info("discarding stale turn result", append(fields,
				zap.Uint64("turn_epoch", t.Epoch), zap.Uint64("epoch", s.epoch))...)

		case out.Err != nil:
			s.replaceFrom(t.Index, t.Entry.Failed())
			s.logger.Warn("turn rolled back", append(fields, zap.Error(out.Err))...)
			evs = append(evs,
				s.transcriptEvent(),
				event{kind: evNotify, msg: failureMessage(out.Err)})

		default:
			resp := out.Response
			user := t.Entry.WithTokenUsage(resp.PromptTokens)
			assistant := model.NewConversation(resp.Message).WithTokenUsage(resp.CompletionTokens)
			s.replaceFrom(t.Index, user, assistant)
			s.logger.Info("turn reconciled", append(fields,
				zap.Int("prompt_tokens", resp.PromptTokens),
				zap.Int("completion_tokens", resp.CompletionTokens))...)
			evs = append(evs, s.transcriptEvent())
		}
	}()

	s.commit(evs)
}

// replaceFrom swaps in a new transcript where the entries from index on are
// replaced by entries. Must be called with mu held.
func (s *Session) replaceFrom(index int, entries ...model.Conversation) {
	if index > len(s.conversations) {
		index = len(s.conversations)
	}
	next := make([]model.Conversation, index, index+len(entries))
	copy(next, s.conversations[:index])
	s.conversations = append(next, entries...)
	s.version++
}

func failureMessage(err error) string {
	return fmt.Sprintf("Send failed: %v", err)
}
