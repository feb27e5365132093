// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFeature is reported when a config change asks for something
// chatptq cannot do (enabling autostart).
var ErrUnsupportedFeature = errors.New("unsupported feature")

// GroupError is the failure of a single field group during Apply.
type GroupError struct {
	Group Group
	Err   error
}

// Error implements the error interface.
func (e *GroupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Group, e.Err)
}

// Unwrap returns the underlying error.
func (e *GroupError) Unwrap() error {
	return e.Err
}

// PersistenceError is a failure to read or write the config file. The
// in-memory configuration stays authoritative.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ApplyError collects everything that went wrong during one Apply. Groups
// that are not listed applied successfully.
type ApplyError struct {
	Groups  []*GroupError
	Persist *PersistenceError
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	var parts []string
	for _, g := range e.Groups {
		parts = append(parts, g.Error())
	}
	if e.Persist != nil {
		parts = append(parts, e.Persist.Error())
	}
	return "config apply: " + strings.Join(parts, "; ")
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *ApplyError) Unwrap() []error {
	errs := make([]error, 0, len(e.Groups)+1)
	for _, g := range e.Groups {
		errs = append(errs, g)
	}
	if e.Persist != nil {
		errs = append(errs, e.Persist)
	}
	return errs
}

// Failed reports whether group g failed.
func (e *ApplyError) Failed(g Group) bool {
	for _, ge := range e.Groups {
		if ge.Group == g {
			return true
		}
	}
	return false
}

func (e *ApplyError) empty() bool {
	return len(e.Groups) == 0 && e.Persist == nil
}
