package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound = errors.New("resource not found")

	// Fatal pipeline errors
	ErrSchema        = errors.New("schema error")
	ErrTraining      = errors.New("training error")
	ErrModelNotReady = errors.New("no active model")

	// Recoverable errors
	ErrAlignment       = errors.New("alignment warning")
	ErrExternalService = errors.New("external service error")

	// Input errors
	ErrInsufficientData = errors.New("insufficient data")
	ErrNonBinaryTarget  = errors.New("target is not binary")
)

// Error constructors with context
func NewSchemaError(reason string) error {
	return fmt.Errorf("%w: %s", ErrSchema, reason)
}

func NewNonBinaryTargetError(column string, value string) error {
	return fmt.Errorf("%w: column %s holds %q", ErrNonBinaryTarget, column, value)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsTrainingError(err error) bool {
	return errors.Is(err, ErrTraining) || errors.Is(err, ErrNonBinaryTarget)
}

// IsFatal reports whether err must abort the pipeline rather than degrade the response
func IsFatal(err error) bool {
	return IsSchemaError(err) || IsTrainingError(err) || errors.Is(err, ErrModelNotReady)
}

func IsRecoverable(err error) bool {
	return errors.Is(err, ErrAlignment) || errors.Is(err, ErrExternalService)
}
