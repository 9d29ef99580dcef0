// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blog implements the ownership-scoped domain operations behind the
// admin and public APIs: posts, tags, and profiles, each scoped to the
// owning user. A row owned by someone else is indistinguishable from a row
// that does not exist.
package blog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a row does not exist for the acting user.
// Ownership violations deliberately surface as this error, not as a
// permission error, so the API never leaks that a foreign row exists.
var ErrNotFound = errors.New("not found")

// ErrTagQuotaExceeded is returned when a user attempts to create more than
// model.MaxTagsPerUser tags.
var ErrTagQuotaExceeded = errors.New("tag quota exceeded")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports a uniqueness violation, such as a duplicate slug
// within the owner's namespace.
type ConflictError struct {
	Resource string
	Field    string
	Value    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Resource, e.Field, e.Value)
}

// NewConflictError creates a ConflictError.
func NewConflictError(resource, field, value string) *ConflictError {
	return &ConflictError{Resource: resource, Field: field, Value: value}
}
