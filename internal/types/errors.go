package types

import (
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants.
// Packages MUST use these constants instead of hardcoded strings.
const (
	// Validation
	ErrCodeValidationMissingField   ErrorCode = "validation_missing_required_field"
	ErrCodeValidationPayload        ErrorCode = "validation_invalid_filing_payload"
	ErrCodeValidationFilingMismatch ErrorCode = "validation_filing_type_mismatch"
	ErrCodeValidationEnvelope       ErrorCode = "validation_invalid_queue_envelope"
	ErrCodeValidationMessageSize    ErrorCode = "validation_message_too_large"

	// Not Found
	ErrCodeNotFoundFiling     ErrorCode = "not_found_filing"
	ErrCodeNotFoundTemplate   ErrorCode = "not_found_template"
	ErrCodeNotFoundFilingType ErrorCode = "not_found_filing_type"

	// Internal
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
	ErrCodeInternalTemplate   ErrorCode = "internal_template_error"
	ErrCodeInternalStorage    ErrorCode = "internal_storage_error"

	// Upstream
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamStatus      ErrorCode = "upstream_unexpected_status"
	ErrCodeUpstreamAuth        ErrorCode = "upstream_auth_unavailable"
	ErrCodeUpstreamQueue       ErrorCode = "upstream_queue_unavailable"
	ErrCodeUpstreamStorage     ErrorCode = "upstream_storage_unavailable"
)

// Fatal reports whether errors carrying this code should abort a notification
// build. Upstream failures are degraded by the callers that tolerate them; all
// other categories are fatal.
func (c ErrorCode) Fatal() bool {
	return !strings.HasPrefix(string(c), "upstream_")
}

// AppError is the standard application error type used throughout the service.
// Errors that cross a package boundary should be expressed as AppError so that
// callers can categorize them without string matching.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
