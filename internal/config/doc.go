// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, persists and applies the chatptq configuration.
//
// AppConfig is an immutable value: every edit produces a new instance, and
// the Store applies the difference between the previous and the new value to
// the network client registry. Field groups (autostart, API key, user proxy,
// system proxy, endpoint) are applied independently; a failing group never
// prevents the others from applying.
//
// # Key Types
//
//   - AppConfig: The configuration record
//   - Groups: Set of field groups that differ between two configs
//   - Store: Owns the current config, applies diffs and persists the result
//   - Properties: Read-only proxy properties (http.proxyHost, ...)
//   - Watcher: Reloads the config file when it is edited externally
//
// # Configuration Files
//
// Configuration is loaded from (first match wins):
//   - $CHATPTQ_HOME/config.toml, or ~/.chatptq/config.toml
//   - $CHATPTQ_HOME/config.json, or ~/.chatptq/config.json
//   - Built-in defaults (written to config.toml on first run)
//
// # Usage
//
//	store := config.NewStore(registry, config.WithLogger(logger))
//	if err := store.Open(); err != nil {
//	    // reported, never fatal: defaults are in effect
//	}
//
//	next := store.Current()
//	next.APIKey = "sk-..."
//	err := store.Update(next)
package config
