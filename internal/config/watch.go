// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultWatchDebounce is how long the file must be quiet before a reload.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watcher reloads the config file when it changes on disk and feeds the
// result through Store.Update. Writes made by the store itself reload to an
// equal config and are therefore no-ops.
type Watcher struct {
	store    *Store
	path     string
	debounce time.Duration
	onError  func(error)
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for the store's config file. onError receives
// reload and apply failures; it may be nil.
func NewWatcher(store *Store, debounce time.Duration, onError func(error)) (*Watcher, error) {
	path, err := store.Path()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: atomic writes replace the file, which drops a
	// watch on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Watcher{store: store, path: path, debounce: debounce, onError: onError, watcher: fw}, nil
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.store.logger.Warn("config watcher error", zap.Error(err))
			w.onError(err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if errors.Is(err, os.ErrNotExist) {
		// Removed or mid-rename; the next create event reloads.
		return
	}
	if err != nil {
		w.onError(&PersistenceError{Op: "reload", Path: w.path, Err: err})
		return
	}
	if err := cfg.Validate(); err != nil {
		w.onError(err)
		return
	}

	w.store.logger.Debug("config file changed on disk", zap.String("path", w.path))
	if err := w.store.Update(cfg); err != nil {
		w.onError(err)
	}
}

// Watch runs a watcher for store until ctx is done.
func Watch(ctx context.Context, store *Store, onError func(error)) error {
	w, err := NewWatcher(store, DefaultWatchDebounce, onError)
	if err != nil {
		return err
	}
	go w.Run(ctx)
	return nil
}
