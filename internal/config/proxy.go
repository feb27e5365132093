// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpproxy"

	"github.com/jeranaias/chatptq/internal/netclient"
)

// Proxy property keys, checked in this order when the system proxy is on.
const (
	PropHTTPProxyHost  = "http.proxyHost"
	PropHTTPProxyPort  = "http.proxyPort"
	PropHTTPSProxyHost = "https.proxyHost"
	PropHTTPSProxyPort = "https.proxyPort"
)

// Properties is a read-only view of system proxy properties.
type Properties interface {
	Lookup(key string) (string, bool)
}

// MapProperties is a fixed set of properties.
type MapProperties map[string]string

// Lookup implements Properties.
func (m MapProperties) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// EnvProperties reads proxy properties from the process environment.
//
// HTTP_PROXY and HTTPS_PROXY (and their lowercase forms) are read through
// httpproxy and split into host and port; a URL without a port gets the
// scheme default. URLs with a scheme other than http or https are skipped. CHATPTQ_HTTP_PROXY_HOST, CHATPTQ_HTTP_PROXY_PORT,
// CHATPTQ_HTTPS_PROXY_HOST and CHATPTQ_HTTPS_PROXY_PORT override them.
func EnvProperties() MapProperties {
	props := MapProperties{}
	env := httpproxy.FromEnvironment()

	setFromURL(props, env.HTTPProxy, PropHTTPProxyHost, PropHTTPProxyPort)
	setFromURL(props, env.HTTPSProxy, PropHTTPSProxyHost, PropHTTPSProxyPort)

	overrides := map[string]string{
		"CHATPTQ_HTTP_PROXY_HOST":  PropHTTPProxyHost,
		"CHATPTQ_HTTP_PROXY_PORT":  PropHTTPProxyPort,
		"CHATPTQ_HTTPS_PROXY_HOST": PropHTTPSProxyHost,
		"CHATPTQ_HTTPS_PROXY_PORT": PropHTTPSProxyPort,
	}
	for envKey, prop := range overrides {
		if v := os.Getenv(envKey); v != "" {
			props[prop] = v
		}
	}
	return props
}

func setFromURL(props MapProperties, raw, hostKey, portKey string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return
	}
	// Only HTTP CONNECT proxies are supported; a SOCKS URL is ignored.
	port := u.Port()
	switch strings.ToLower(u.Scheme) {
	case "http":
		if port == "" {
			port = "80"
		}
	case "https":
		if port == "" {
			port = "443"
		}
	default:
		return
	}
	props[hostKey] = u.Hostname()
	props[portKey] = port
}

// ResolveSystemProxy picks the effective proxy from props: the HTTP proxy
// host and port if the host is set, else the HTTPS pair, else fallback.
// A host without a usable port is an error.
func ResolveSystemProxy(props Properties, fallback netclient.Proxy) (netclient.Proxy, error) {
	pairs := [][2]string{
		{PropHTTPProxyHost, PropHTTPProxyPort},
		{PropHTTPSProxyHost, PropHTTPSProxyPort},
	}
	for _, pair := range pairs {
		host, ok := props.Lookup(pair[0])
		host = strings.TrimSpace(host)
		if !ok || host == "" {
			continue
		}
		rawPort, _ := props.Lookup(pair[1])
		port, err := strconv.Atoi(strings.TrimSpace(rawPort))
		if err != nil || port <= 0 || port > 65535 {
			return netclient.Proxy{}, fmt.Errorf("%w: %s=%q has no valid %s (%q)",
				netclient.ErrInvalidProxy, pair[0], host, pair[1], rawPort)
		}
		p := netclient.Proxy{Host: host, Port: port}
		return p, p.Validate()
	}
	return fallback, nil
}
