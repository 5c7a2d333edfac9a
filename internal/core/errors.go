package core

import "fmt"

// ErrorCode classifies verification failures.
type ErrorCode string

const (
	ErrPlatformTimeout ErrorCode = "PLATFORM_TIMEOUT"
	ErrPlatformError   ErrorCode = "PLATFORM_ERROR"
	ErrRateLimited     ErrorCode = "RATE_LIMITED"
	ErrInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCacheError      ErrorCode = "CACHE_ERROR"
	ErrUnknown         ErrorCode = "UNKNOWN_ERROR"
)

// VerifyError is the typed failure produced at an adapter boundary.
// Only INVALID_INPUT surfaces to callers; everything else is recovered
// locally into degraded PlatformEvidence.
type VerifyError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	SourceID  string    `json:"source_id,omitempty"`
	Retryable bool      `json:"retryable"`
}

// Error implements the error interface.
func (e *VerifyError) Error() string {
	if e.SourceID != "" {
		return fmt.Sprintf("%s: %s: %s", e.SourceID, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewVerifyError builds a typed verification error.
func NewVerifyError(code ErrorCode, sourceID, message string) *VerifyError {
	return &VerifyError{
		Code:      code,
		Message:   message,
		SourceID:  sourceID,
		Retryable: code == ErrPlatformTimeout || code == ErrPlatformError,
	}
}

// TimeoutError marks a source call that exceeded its deadline.
func TimeoutError(sourceID string) *VerifyError {
	return &VerifyError{Code: ErrPlatformTimeout, Message: "request timed out", SourceID: sourceID, Retryable: true}
}

// RateLimitedError marks a 429-equivalent response. Never retried in the
// same cycle; the caller backs off and skips the source.
func RateLimitedError(sourceID, message string) *VerifyError {
	return &VerifyError{Code: ErrRateLimited, Message: message, SourceID: sourceID, Retryable: false}
}

// InvalidInputError marks malformed caller input. The only error class
// surfaced before any network work begins.
func InvalidInputError(message string) *VerifyError {
	return &VerifyError{Code: ErrInvalidInput, Message: message, Retryable: false}
}
