// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package netclient

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidProxy is returned when a proxy host or port cannot be used.
var ErrInvalidProxy = errors.New("invalid proxy")

// Proxy is an HTTP proxy endpoint.
type Proxy struct {
	Host string `toml:"host" json:"host"`
	Port int    `toml:"port" json:"port"`
}

// Direct reports whether p means "no proxy". An empty or unspecified host
// (0.0.0.0) or port 0 disables proxying; this is also the default setting.
func (p Proxy) Direct() bool {
	host := strings.TrimSpace(p.Host)
	return host == "" || host == "0.0.0.0" || p.Port == 0
}

// Validate checks that a non-direct proxy is usable.
func (p Proxy) Validate() error {
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidProxy, p.Port)
	}
	if p.Direct() {
		return nil
	}
	if strings.ContainsAny(p.Host, " /@") {
		return fmt.Errorf("%w: bad host %q", ErrInvalidProxy, p.Host)
	}
	return nil
}

// URL returns the proxy URL, or nil for a direct connection.
func (p Proxy) URL() *url.URL {
	if p.Direct() {
		return nil
	}
	return &url.URL{Scheme: "http", Host: net.JoinHostPort(strings.TrimSpace(p.Host), strconv.Itoa(p.Port))}
}

// String renders host:port, or "direct".
func (p Proxy) String() string {
	if p.Direct() {
		return "direct"
	}
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// ParseProxy parses "host:port" or an http(s) proxy URL. An empty string
// yields the direct proxy.
func ParseProxy(s string) (Proxy, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "direct") || strings.EqualFold(s, "none") {
		return Proxy{}, nil
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
			return Proxy{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxy, u.Scheme)
		}
		s = u.Host
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Proxy{}, fmt.Errorf("%w: %v", ErrInvalidProxy, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Proxy{}, fmt.Errorf("%w: port %q is not a number", ErrInvalidProxy, portStr)
	}
	p := Proxy{Host: host, Port: port}
	return p, p.Validate()
}
