// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatptq/internal/config"
	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/session"
)

// =============================================================================
// SESSION AND CONFIG MESSAGES
// =============================================================================

// TranscriptMsg carries a new transcript snapshot.
type TranscriptMsg struct {
	Conversations []model.Conversation
}

// SendingMsg reports that a turn started (true) or ended (false).
type SendingMsg struct {
	Sending bool
}

// NotifyMsg carries a transient user-visible failure message.
type NotifyMsg struct {
	Text string
}

// ConfigMsg carries the configuration after a change.
type ConfigMsg struct {
	Config config.AppConfig
}

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// scrollFlushMsg ends a scroll coalescing window.
type scrollFlushMsg struct {
	seq int
}

// statusExpiredMsg clears the status line if it still shows message seq.
type statusExpiredMsg struct {
	seq int
}

// =============================================================================
// EVENT BRIDGE
// =============================================================================

// bridge moves events from session and config goroutines into the Bubble Tea
// loop. Sends block until the loop receives or the bridge is closed.
type bridge struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

func newBridge() *bridge {
	return &bridge{
		ch:   make(chan tea.Msg, 64),
		done: make(chan struct{}),
	}
}

func (b *bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}

func (b *bridge) close() {
	b.once.Do(func() { close(b.done) })
}

// listen returns a command that waits for the next event.
func (b *bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.done:
			return nil
		}
	}
}

// sessionListener forwards session events into the bridge.
func (b *bridge) sessionListener() session.Listener {
	return session.Listener{
		TranscriptChanged: func(convs []model.Conversation) {
			b.send(TranscriptMsg{Conversations: convs})
		},
		SendingChanged: func(sending bool) {
			b.send(SendingMsg{Sending: sending})
		},
		Notify: func(text string) {
			b.send(NotifyMsg{Text: text})
		},
	}
}
