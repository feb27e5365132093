// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands turns text typed into the chat input into intents.
//
// Plain text is a Submit intent. Text starting with "/" is a slash command
// that resolves to one of the other intents; "//" escapes a message that
// really starts with a slash.
//
// # Key Types
//
//   - Intent: Submit, Clear, Retranslate, TranslateInput, UpdateConfig,
//     ShowConfig, Copy, Help, Quit
//   - Registry: Command registry with all built-in commands
//   - Parser: Parses input into a ParseResult and an Intent
//   - Completer: Tab completion for commands and arguments
//
// # Built-in Commands
//
//   - /help, /quit, /clear
//   - /translate <n|last> <language>: Translate a transcript entry
//   - /tr <language> <text>: Translate the given text
//   - /copy [n|last]: Copy an entry to the clipboard
//   - /key, /proxy, /sysproxy, /autostart, /name, /mode, /model, /set, /config
//
// # Usage
//
//	parser := commands.NewParser(commands.NewRegistry())
//	intent, err := parser.Intent(input)
//	switch in := intent.(type) {
//	case commands.Submit:
//	    sess.Submit(ctx, in.Text)
//	case commands.UpdateConfig:
//	    store.Set(in.Key, in.Value)
//	}
package commands
