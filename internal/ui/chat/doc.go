// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view for chatptq.
//
// The view is a thin collaborator around session.Session and config.Store:
// key presses are resolved into submit or insert-newline actions according
// to the configured fast send mode, input text is parsed into intents by the
// commands package, and session events arrive as Bubble Tea messages through
// a channel.
//
// # Key Types
//
//   - Model: The Bubble Tea model (header, transcript viewport, input, status bar)
//   - KeyAction: Result of resolving a key press against a fast send mode
//   - HoldTracker: Emulates "long press Enter" from terminal key auto-repeat
//
// # Usage
//
//	m := chat.New(styles.NewTheme(), sess, store, chat.WithLogger(logger))
//	err := chat.Run(ctx, m)
package chat
