// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package netclient holds the process-wide HTTP client configuration used by
// every outbound chat completions request.
//
// The Registry is the single writer of that configuration. Each change builds
// a new immutable Snapshot (config plus a ready *http.Client) and publishes it
// atomically. Readers call Snapshot() once per request and never see a
// half-applied change.
//
// # Key Types
//
//   - Registry: Serialized writer, lock-free reader
//   - Snapshot: Immutable view of the API key, proxy, endpoint and client
//   - Proxy: Host/port pair; the zero-ish value means a direct connection
//
// # Usage
//
//	reg := netclient.NewRegistry(netclient.Config{BaseURL: url, Model: model})
//	reg.SetAPIKey(key)
//	if err := reg.SetProxy(&netclient.Proxy{Host: "proxy.local", Port: 8080}); err != nil {
//	    return err
//	}
//	snap := reg.Snapshot()
//	resp, err := snap.Client.Do(req)
package netclient
