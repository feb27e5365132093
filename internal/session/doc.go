// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation session engine.
//
// A Session owns the transcript and runs one turn at a time through the
// chat completions gateway. Each turn goes Idle -> Submitting ->
// Reconciled or RolledBack -> Idle:
//
//   - Begin validates and normalizes the input, appends the user entry
//     optimistically and snapshots the request context
//   - Turn.Send performs the network call without touching the session
//   - Complete reconciles the transcript with the response, or flags the
//     user entry as failed, and clears the submitting flag exactly once
//
// A submit while another turn is in flight is silently ignored. Clear may run
// at any time; it bumps the transcript epoch so a response that arrives
// afterwards is discarded instead of resurrecting old entries.
//
// # Key Types
//
//   - Session: Transcript state machine and persistence boundary
//   - Turn: One in-flight submission (id, epoch, request snapshot)
//   - Outcome: Result of Turn.Send, fed back through Complete
//   - Listener: TranscriptChanged, SendingChanged and Notify callbacks
//
// # Usage
//
//	sess, err := session.Open(store, gateway, session.WithListener(session.Listener{
//	    TranscriptChanged: func(c []model.Conversation) { ... },
//	    Notify:            func(msg string) { ... },
//	}))
//	if err != nil {
//	    // reported; sess is usable and starts empty
//	}
//	defer sess.Close()
//
//	err = sess.Submit(ctx, "Hello!")
//
// Listeners run after the session lock is released, in mutation order. They
// may read the session but must not call mutating methods synchronously.
package session
