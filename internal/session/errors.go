// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "fmt"

// ValidationError is bad user input, rejected before any state change.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches validation errors with the same message.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Message == e.Message
}

var (
	// ErrEmptyInput is returned when the submitted text is blank.
	ErrEmptyInput = &ValidationError{Message: "empty input"}

	// ErrInvalidIndex is returned for a transcript index that does not exist.
	ErrInvalidIndex = &ValidationError{Message: "invalid conversation index"}

	// ErrUnknownLanguage is returned when a language name cannot be resolved.
	ErrUnknownLanguage = &ValidationError{Message: "unknown language"}
)

// PersistenceError is a failure to load or save the transcript. The
// in-memory transcript stays authoritative.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("transcript %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
