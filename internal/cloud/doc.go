// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud is the chat completions gateway for OpenAI-compatible
// services.
//
// Every call reads a fresh snapshot from the network client registry, so API
// key, proxy and endpoint changes apply to the next request without
// rebuilding the gateway. Requests are single-shot: a failed call is reported
// to the caller and never retried here.
//
// # Key Types
//
//   - Client: Sends a transcript and returns the first choice plus usage
//   - Kind: Error class of a failed call (transport, auth, protocol)
//
// # Usage
//
//	gw := cloud.New(registry, cloud.WithLogger(logger))
//	resp, err := gw.Send(ctx, []model.Message{model.NewUserMessage("Hello")})
//	if err != nil {
//	    switch cloud.Kind(err) {
//	    case cloud.KindAuth:
//	        // prompt for a new key
//	    }
//	}
//
// # Security
//
// API keys are never logged. Log lines carry a short SHA-256 fingerprint of
// the key so separate runs can be correlated.
package cloud
