// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// chatptq.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Global flags plus the raw arguments of the command
//   - ArgParser: Per-command flag and positional argument parsing
//   - Env: Collaborators shared by every handler (config store, blob
//     store, gateway, logger, I/O)
//   - JSONResponse: Envelope for --json output
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, env, args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(ctx, env, args)
//	// ... other commands
//	}
//	os.Exit(cli.GetExitCode(err))
//
// # Commands Overview
//
//   - tui: Full-screen chat (default, lives in internal/ui/chat)
//   - ask: Single question, conversation untouched
//   - chat: Line-based REPL on the saved conversation
//   - history: Print the saved conversation
//   - clear: Clear the saved conversation
//   - config: Show, get or set settings
//   - export: Write the conversation as Markdown or JSON
//
// All listing commands support the --json flag.
package cli
