// Package errors provides the standardized error type shared by the
// activity registry, the event sinks and the HTTP layer.
package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Roster errors
const (
	ErrCodeActivityNotFound ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeAlreadySignedUp  ErrorCode = "ALREADY_SIGNED_UP"
	ErrCodeNotSignedUp      ErrorCode = "NOT_SIGNED_UP"
)

// Request, seed and infrastructure errors
const (
	ErrCodeMissingParameter   ErrorCode = "MISSING_PARAMETER"
	ErrCodeSeedInvalid        ErrorCode = "SEED_INVALID"
	ErrCodeSinkDeliveryFailed ErrorCode = "SINK_DELIVERY_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error. Message is the
// human-readable text returned to API callers as "detail".
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is reports code equality so callers can match against the sentinels below
// with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is. Never return these directly.
var (
	ErrActivityNotFound = &StandardError{Code: ErrCodeActivityNotFound}
	ErrAlreadySignedUp  = &StandardError{Code: ErrCodeAlreadySignedUp}
	ErrNotSignedUp      = &StandardError{Code: ErrCodeNotSignedUp}
	ErrSeedInvalid      = &StandardError{Code: ErrCodeSeedInvalid}
)

// ==========================
// 2. Error Constructors
// ==========================

// NewActivityNotFoundError is returned when a name does not match any activity.
func NewActivityNotFoundError(activity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityNotFound,
		Message:   "Activity not found",
		Details:   fmt.Sprintf("activity: %s", activity),
		Retryable: false,
		Metadata:  map[string]interface{}{"activity": activity},
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadySignedUpError is returned by signup when the email is already on the roster.
func NewAlreadySignedUpError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadySignedUp,
		Message:   "Student is already signed up for this activity",
		Details:   fmt.Sprintf("activity: %s, email: %s", activity, email),
		Retryable: false,
		Metadata:  map[string]interface{}{"activity": activity, "email": email},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotSignedUpError is returned by unregister when the email is not on the roster.
func NewNotSignedUpError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotSignedUp,
		Message:   "Student is not signed up for this activity",
		Details:   fmt.Sprintf("activity: %s, email: %s", activity, email),
		Retryable: false,
		Metadata:  map[string]interface{}{"activity": activity, "email": email},
		Timestamp: time.Now().UTC(),
	}
}

func NewMissingParameterError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingParameter,
		Message:   fmt.Sprintf("Missing required query parameter: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSeedInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSeedInvalid,
		Message:   "Seed catalog is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSinkDeliveryFailedError wraps a failure to deliver a roster event.
func NewSinkDeliveryFailedError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSinkDeliveryFailed,
		Message:   fmt.Sprintf("Event sink '%s' delivery failed", sink),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"sink": sink},
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Error Conversion to HTTP
// ==========================

// HTTPStatusMapping maps internal error codes to response status codes.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeActivityNotFound:   http.StatusNotFound,
	ErrCodeAlreadySignedUp:    http.StatusBadRequest,
	ErrCodeNotSignedUp:        http.StatusBadRequest,
	ErrCodeMissingParameter:   http.StatusUnprocessableEntity,
	ErrCodeSeedInvalid:        http.StatusInternalServerError,
	ErrCodeSinkDeliveryFailed: http.StatusBadGateway,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// GetHTTPStatus returns the status for code, 500 when unmapped.
func GetHTTPStatus(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// As normalizes any error into a StandardError. Wrapped StandardErrors are
// unwrapped; everything else becomes INTERNAL_ERROR.
func As(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if goerrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// ==========================
// 4. Helper Functions
// ==========================

// IsRetryableErrorCode reports whether a code represents a transient failure.
func IsRetryableErrorCode(code ErrorCode) bool {
	return code == ErrCodeSinkDeliveryFailed
}

// GetErrorCategory returns "client", "integration" or "server".
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeActivityNotFound, ErrCodeAlreadySignedUp, ErrCodeNotSignedUp, ErrCodeMissingParameter:
		return "client"
	case ErrCodeSinkDeliveryFailed:
		return "integration"
	default:
		return "server"
	}
}
