// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package netclient

import (
	"crypto/tls"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/logging"
)

const (
	// DefaultBaseURL is the OpenAI-compatible API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-3.5-turbo"

	// DefaultTimeout bounds a whole chat round trip. There is no other
	// timeout on the request path.
	DefaultTimeout = 120 * time.Second
)

// Config is the shared network client configuration.
type Config struct {
	APIKey  string
	Proxy   *Proxy // nil means direct
	BaseURL string
	Model   string
}

// Snapshot is an immutable view of the registry at one point in time.
type Snapshot struct {
	Config  Config
	Client  *http.Client
	Version uint64
}

// ProxyURL returns the effective proxy for display, or "direct".
func (s *Snapshot) ProxyURL() string {
	if s.Config.Proxy == nil {
		return "direct"
	}
	return s.Config.Proxy.String()
}

// Registry owns the network client configuration. Writes are serialized;
// reads are a single atomic load.
type Registry struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[Snapshot]
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithTimeout sets the per-request client timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithLogger sets the registry logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates a registry with the given initial configuration.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	r := &Registry{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger).Named("netclient")
	r.publish(normalize(cfg), 1)
	return r
}

// Snapshot returns the current configuration. The result must be treated as
// read-only.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// SetAPIKey replaces the API key.
func (r *Registry) SetAPIKey(key string) {
	_ = r.Update(func(c *Config) error {
		c.APIKey = strings.TrimSpace(key)
		return nil
	})
}

// SetProxy replaces the proxy. A nil or direct proxy disables proxying.
func (r *Registry) SetProxy(p *Proxy) error {
	if p != nil {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return r.Update(func(c *Config) error {
		if p == nil || p.Direct() {
			c.Proxy = nil
			return nil
		}
		cp := *p
		c.Proxy = &cp
		return nil
	})
}

// SetEndpoint replaces the base URL and model.
func (r *Registry) SetEndpoint(baseURL, model string) {
	_ = r.Update(func(c *Config) error {
		c.BaseURL = baseURL
		c.Model = model
		return nil
	})
}

// Update runs fn on a copy of the current config inside the writer critical
// section and publishes the result. If fn fails nothing is published.
func (r *Registry) Update(fn func(*Config) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.current.Load()
	next := old.Config
	if old.Config.Proxy != nil {
		p := *old.Config.Proxy
		next.Proxy = &p
	}
	if err := fn(&next); err != nil {
		return err
	}
	next = normalize(next)

	r.publish(next, old.Version+1)
	if transportChanged(old.Config, next) {
		// In-flight requests keep their own client; only idle sockets go.
		old.Client.CloseIdleConnections()
	}

	r.logger.Debug("network client reconfigured",
		logging.Secret("api_key", next.APIKey),
		zap.String("proxy", r.current.Load().ProxyURL()),
		zap.String("base_url", next.BaseURL),
		zap.String("model", next.Model),
	)
	return nil
}

// Close releases idle connections held by the current client.
func (r *Registry) Close() {
	if s := r.current.Load(); s != nil {
		s.Client.CloseIdleConnections()
	}
}

func (r *Registry) publish(cfg Config, version uint64) {
	old := r.current.Load()
	var client *http.Client
	if old != nil && !transportChanged(old.Config, cfg) {
		client = old.Client
	} else {
		client = newHTTPClient(cfg.Proxy, r.timeout)
	}
	r.current.Store(&Snapshot{Config: cfg, Client: client, Version: version})
}

func normalize(c Config) Config {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if c.Proxy != nil && c.Proxy.Direct() {
		c.Proxy = nil
	}
	return c
}

func transportChanged(a, b Config) bool {
	switch {
	case a.Proxy == nil && b.Proxy == nil:
		return false
	case a.Proxy == nil || b.Proxy == nil:
		return true
	default:
		return *a.Proxy != *b.Proxy
	}
}

func newHTTPClient(p *Proxy, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2:   true,
	}
	if p != nil {
		transport.Proxy = http.ProxyURL(p.URL())
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}
