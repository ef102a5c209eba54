package service

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound is returned when a task reference matches nothing.
	ErrTaskNotFound = errors.New("task not found")
	// ErrAmbiguousRef is returned when a short task reference matches several tasks.
	ErrAmbiguousRef = errors.New("ambiguous task reference")
)

// ValidationError rejects input before any state changes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
