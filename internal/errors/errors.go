package errors

import (
	stderrors "errors"
	"fmt"

	"fraudscore/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches the domain sentinel of the error's code, so core.IsFatal and
// core.IsRecoverable classify AppErrors.
func (e *AppError) Is(target error) bool {
	sentinel, ok := sentinels[e.Code]
	return ok && sentinel == target
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeExternalService  = "EXTERNAL_SERVICE_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeSchemaError      = "SCHEMA_ERROR"
	CodeTrainingError    = "TRAINING_ERROR"
	CodeAlignmentWarning = "ALIGNMENT_WARNING"
	CodeModelNotReady    = "MODEL_NOT_READY"
)

var sentinels = map[string]error{
	CodeNotFound:         core.ErrNotFound,
	CodeSchemaError:      core.ErrSchema,
	CodeTrainingError:    core.ErrTraining,
	CodeModelNotReady:    core.ErrModelNotReady,
	CodeAlignmentWarning: core.ErrAlignment,
	CodeExternalService:  core.ErrExternalService,
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// SchemaError reports a table that cannot be framed as a binary classification task
func SchemaError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeSchemaError,
		Message: message,
		Cause:   cause,
	}
}

// TrainingError reports a failure raised by the boosting capability
func TrainingError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeTrainingError,
		Message: message,
		Cause:   cause,
	}
}

// AlignmentWarning reports a record that was scored after columns were filled, dropped or zeroed
func AlignmentWarning(message string) *AppError {
	return New(CodeAlignmentWarning, message)
}

func ModelNotReady(message string) *AppError {
	return New(CodeModelNotReady, message)
}
