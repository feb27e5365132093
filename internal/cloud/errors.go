// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// Error variables for the gateway failure classes.
var (
	// ErrTransport indicates the service could not be reached or the
	// connection failed mid-request (including timeouts).
	ErrTransport = errors.New("network error")

	// ErrAuthFailed indicates the service rejected the credentials, or no
	// API key is configured.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrProtocol indicates a non-success status or a response that could
	// not be decoded.
	ErrProtocol = errors.New("unexpected response")
)

// ErrorKind classifies gateway errors.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransport
	KindAuth
	KindProtocol
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindProtocol:
		return "protocol"
	}
	return "none"
}

// Kind reports the class of err. Errors that did not come from the gateway
// report KindNone.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAuthFailed):
		return KindAuth
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	}
	return KindNone
}

// isTransportError reports whether err came from the connection rather than
// from the response.
func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
