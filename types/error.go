package types

import "fmt"

// ErrorCode classifies an API-visible failure.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrWorkflowNotFound  ErrorCode = "WORKFLOW_NOT_FOUND"
	ErrRunNotFound       ErrorCode = "RUN_NOT_FOUND"
	ErrWorkflowCycle     ErrorCode = "WORKFLOW_CYCLE"
	ErrExecutorMissing   ErrorCode = "EXECUTOR_MISSING"
	ErrNodeFailed        ErrorCode = "NODE_FAILED"
	ErrConfirmDenied     ErrorCode = "CONFIRM_DENIED"
	ErrConfirmNotPending ErrorCode = "CONFIRM_NOT_PENDING"
	ErrRateLimited       ErrorCode = "RATE_LIMITED"
	ErrTimeout           ErrorCode = "TIMEOUT"
	ErrInternalError     ErrorCode = "INTERNAL_ERROR"
)

// Error is a structured error with code, message and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause attaches the underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status to respond with.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable reports whether an error is marked retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the code from an error, or "" for plain errors.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
