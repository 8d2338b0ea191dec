package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrQuestionNotFound = fmt.Errorf("%w: question", ErrNotFound)
	ErrColumnNotFound   = fmt.Errorf("%w: banner column", ErrNotFound)
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)

	// Validation errors
	ErrInvalidConfig      = errors.New("invalid run configuration")
	ErrInvalidBanner      = errors.New("invalid banner specification")
	ErrInvalidWeights     = errors.New("invalid weight vector")
	ErrNoQuestions        = errors.New("no questions selected")
	ErrMissingColumn      = errors.New("source column missing from data")
	ErrAmbiguousOptions   = errors.New("ambiguous option mapping")
	ErrCompositeCycle     = errors.New("composite index dependency cycle")
	ErrCompositeDependent = errors.New("composite index dependency unavailable")

	// Statistical edge cases
	ErrEmptyBase        = errors.New("empty base")
	ErrInsufficientBase = errors.New("base below testing minimum")
)

// NewValidationError reports a validation failure for a named field
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// NewMissingColumnError reports a question whose source column is absent
func NewMissingColumnError(code QuestionCode, column string) error {
	return fmt.Errorf("%w: question %s needs column %q", ErrMissingColumn, code, column)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidBanner) ||
		errors.Is(err, ErrInvalidWeights) ||
		errors.Is(err, ErrNoQuestions)
}

// IsSkipError reports whether an error is question-scoped: it skips the
// question but never aborts the run.
func IsSkipError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrEmptyBase) ||
		errors.Is(err, ErrAmbiguousOptions) ||
		errors.Is(err, ErrCompositeCycle) ||
		errors.Is(err, ErrCompositeDependent)
}
