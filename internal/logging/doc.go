// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the zap logger used across chatptq.
//
// The TUI owns the terminal, so interactive commands log to a file under
// ~/.chatptq while one-shot commands may log to stderr.
//
// # Usage
//
//	logger, err := logging.New(logging.Options{Level: "debug", Path: logPath})
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
package logging
