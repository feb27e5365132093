// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/logging"
	"github.com/jeranaias/chatptq/internal/netclient"
)

// Registry is the part of the network client registry the store drives.
// *netclient.Registry implements it.
type Registry interface {
	SetAPIKey(key string)
	SetProxy(p *netclient.Proxy) error
	SetEndpoint(baseURL, model string)
}

// Store owns the current AppConfig. Apply and Update are serialized: the
// steps of one apply never interleave with another.
type Store struct {
	mu        sync.Mutex
	path      string
	current   AppConfig
	registry  Registry
	props     Properties
	logger    *zap.Logger
	listeners []func(AppConfig)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPath sets the config file. The default is DefaultPath().
func WithPath(path string) StoreOption {
	return func(s *Store) { s.path = path }
}

// WithProperties sets the system proxy properties. The default reads the
// environment on every resolution.
func WithProperties(p Properties) StoreOption {
	return func(s *Store) { s.props = p }
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store holding Default() until Open is called.
func NewStore(registry Registry, opts ...StoreOption) *Store {
	s := &Store{registry: registry, current: Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger).Named("config")
	return s
}

// Path returns the config file path, resolving the default if needed.
func (s *Store) Path() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvePathLocked()
}

func (s *Store) resolvePathLocked() (string, error) {
	if s.path != "" {
		return s.path, nil
	}
	path, err := DefaultPath()
	if err != nil {
		return "", err
	}
	s.path = path
	return path, nil
}

// Current returns the configuration in effect.
func (s *Store) Current() AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers fn to be called with the new configuration after every
// Apply or Update that changed it. fn runs outside the store lock.
func (s *Store) Subscribe(fn func(AppConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// =============================================================================
// OPEN
// =============================================================================

// Open loads the config file and applies it to the registry as a first run
// (every group). A missing file is created with defaults. A malformed file is
// reported and defaults are used without overwriting it. The returned error
// is informational: the store is usable either way.
func (s *Store) Open() error {
	s.mu.Lock()

	var errs []error
	cfg := Default()

	path, err := s.resolvePathLocked()
	switch {
	case err != nil:
		errs = append(errs, &PersistenceError{Op: "locate", Err: err})
	default:
		loaded, loadErr := Load(path)
		switch {
		case errors.Is(loadErr, os.ErrNotExist):
			if err := Save(cfg, path); err != nil {
				errs = append(errs, &PersistenceError{Op: "write", Path: path, Err: err})
			} else {
				s.logger.Info("wrote default config", zap.String("path", path))
			}
		case loadErr != nil:
			s.logger.Warn("config file is malformed, using defaults", zap.String("path", path), zap.Error(loadErr))
			errs = append(errs, &PersistenceError{Op: "read", Path: path, Err: loadErr})
		default:
			cfg = loaded
			if err := cfg.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("config %s: %w", path, err))
			}
		}
	}

	if err := s.applyLocked(nil, cfg, false); err != nil {
		errs = append(errs, err)
	}
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
	return errors.Join(errs...)
}

// =============================================================================
// APPLY
// =============================================================================

// Apply applies the groups that differ between old and next to the registry
// and persists next when it differs from old (or old is nil). A nil old
// applies every group. Groups are independent: a failing group is recorded
// and the remaining groups still apply. The returned error, if any, is an
// *ApplyError.
func (s *Store) Apply(old *AppConfig, next AppConfig) error {
	s.mu.Lock()
	err := s.applyLocked(old, next, true)
	listeners := s.listeners
	s.mu.Unlock()

	if old == nil || *old != next {
		for _, fn := range listeners {
			fn(next)
		}
	}
	return err
}

// Update applies next against the current configuration.
func (s *Store) Update(next AppConfig) error {
	s.mu.Lock()
	old := s.current
	err := s.applyLocked(&old, next, true)
	listeners := s.listeners
	s.mu.Unlock()

	if old != next {
		for _, fn := range listeners {
			fn(next)
		}
	}
	return err
}

// Set updates a single dotted key (see AppConfig.With).
func (s *Store) Set(key, value string) error {
	next, err := s.Current().With(key, value)
	if err != nil {
		return err
	}
	return s.Update(next)
}

func (s *Store) applyLocked(old *AppConfig, next AppConfig, persist bool) error {
	changed := Diff(old, next)
	result := &ApplyError{}
	fail := func(g Group, err error) {
		result.Groups = append(result.Groups, &GroupError{Group: g, Err: err})
		s.logger.Warn("config group failed", zap.Stringer("group", g), zap.Error(err))
	}

	if changed.Has(GroupAutoStart) && next.AutoStart {
		fail(GroupAutoStart, fmt.Errorf("%w: launching at login is not available", ErrUnsupportedFeature))
	}

	if changed.Has(GroupAPIKey) {
		s.registry.SetAPIKey(next.APIKey)
	}

	if changed.Has(GroupUserProxy) && !next.EnableSystemProxy {
		p := next.UserProxy
		if err := s.registry.SetProxy(&p); err != nil {
			fail(GroupUserProxy, err)
		}
	}

	if changed.Has(GroupSystemProxy) {
		if err := s.applySystemProxy(next); err != nil {
			fail(GroupSystemProxy, err)
		}
	}

	if changed.Has(GroupEndpoint) {
		s.registry.SetEndpoint(next.BaseURL, next.Model)
	}

	if persist && (old == nil || *old != next) {
		if err := s.saveLocked(next); err != nil {
			result.Persist = err
			s.logger.Warn("failed to persist config", zap.Error(err))
		}
	}
	s.current = next

	s.logger.Info("config applied",
		zap.Stringer("groups", changed),
		zap.Int("failed", len(result.Groups)),
		zap.Bool("persisted", persist && result.Persist == nil && (old == nil || *old != next)))

	if result.empty() {
		return nil
	}
	return result
}

func (s *Store) applySystemProxy(next AppConfig) error {
	target := next.UserProxy
	if next.EnableSystemProxy {
		resolved, err := ResolveSystemProxy(s.properties(), next.UserProxy)
		if err != nil {
			return err
		}
		target = resolved
		s.logger.Debug("resolved system proxy", zap.Stringer("proxy", target))
	}
	return s.registry.SetProxy(&target)
}

func (s *Store) properties() Properties {
	if s.props != nil {
		return s.props
	}
	return EnvProperties()
}

func (s *Store) saveLocked(cfg AppConfig) *PersistenceError {
	path, err := s.resolvePathLocked()
	if err != nil {
		return &PersistenceError{Op: "locate", Err: err}
	}
	if err := Save(cfg, path); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	return nil
}
