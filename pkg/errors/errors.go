package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure kind independently of its message
type ErrorCode string

const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Member access errors
	ErrPropertyNotFound         ErrorCode = "PROPERTY_NOT_FOUND"
	ErrMethodNotFound           ErrorCode = "METHOD_NOT_FOUND"
	ErrConstructorUnsatisfiable ErrorCode = "CONSTRUCTOR_UNSATISFIABLE"
	ErrTypeMismatch             ErrorCode = "TYPE_MISMATCH"
	ErrReadOnly                 ErrorCode = "READ_ONLY"
	ErrInvocation               ErrorCode = "INVOCATION_FAILED"
	ErrSchemaInvalid            ErrorCode = "SCHEMA_INVALID"

	// Registry errors
	ErrDuplicateKey ErrorCode = "DUPLICATE_KEY"
	ErrKeyNotFound  ErrorCode = "KEY_NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Serialization errors
	ErrUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrEncode            ErrorCode = "ENCODE"
	ErrDecode            ErrorCode = "DECODE"

	// Host command errors
	ErrCommandParse   ErrorCode = "COMMAND_PARSE"
	ErrCommandUnknown ErrorCode = "COMMAND_UNKNOWN"
)

// DynError is a structured error carrying a code and optional details
type DynError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DynError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DynError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a DynError with the same code
func (e *DynError) Is(target error) bool {
	var targetErr *DynError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DynError with the given code and message
func New(code ErrorCode, message string) *DynError {
	return &DynError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DynError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DynError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a DynError. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *DynError {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DynError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// FromPanic converts a recovered panic value into an INTERNAL error.
func FromPanic(recovered interface{}, op string) *DynError {
	if err, ok := recovered.(error); ok {
		return Wrapf(err, ErrInternal, "%s panicked", op)
	}
	return Newf(ErrInternal, "%s panicked: %v", op, recovered)
}

// WithDetail adds a detail to the error
func (e *DynError) WithDetail(key string, value interface{}) *DynError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *DynError) WithDetails(details map[string]interface{}) *DynError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var dynErr *DynError
	if errors.As(err, &dynErr) {
		return dynErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a DynError
func GetErrorCode(err error) ErrorCode {
	var dynErr *DynError
	if errors.As(err, &dynErr) {
		return dynErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a DynError
func GetErrorDetails(err error) map[string]interface{} {
	var dynErr *DynError
	if errors.As(err, &dynErr) {
		return dynErr.Details
	}
	return nil
}
