package service

import (
	"errors"
	"fmt"

	"github.com/mvargas/muni-machinery/internal/report"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
)

// ValidationError carries field-specific messages back to the form. It blocks
// submission but is always recoverable by correcting input.
type ValidationError struct {
	Violations []report.Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("validation failed: %s: %s", e.Violations[0].Field, e.Violations[0].Message)
	}
	return fmt.Sprintf("validation failed: %d fields", len(e.Violations))
}

func validationError(violations []report.Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}
