package model

import (
	"errors"
	"sort"
	"strings"
)

// Common errors used across the application
var (
	// Not found errors
	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrAdminNotFound  = errors.New("admin not found")

	// Conflict errors
	ErrGameFull           = errors.New("game is full")
	ErrAlreadyJoined      = errors.New("address has already joined this game")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrGameComplete       = errors.New("game is already complete")
	ErrGameNotActive      = errors.New("game is not active")
	ErrAdminExists        = errors.New("admin already exists")

	// Infrastructure errors
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsConflict reports whether err is one of the conflict errors
func IsConflict(err error) bool {
	return errors.Is(err, ErrGameFull) ||
		errors.Is(err, ErrAlreadyJoined) ||
		errors.Is(err, ErrGameAlreadyStarted) ||
		errors.Is(err, ErrGameComplete) ||
		errors.Is(err, ErrGameNotActive) ||
		errors.Is(err, ErrAdminExists)
}

// IsNotFound reports whether err is one of the not-found errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGameNotFound) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrAdminNotFound)
}

// ValidationError reports malformed input field by field
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError with a single field message
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Error implements error
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for a field, keeping the first message per field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// HasErrors returns true if any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
