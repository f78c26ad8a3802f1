// Package errors carries structured errors across the threatmap CLI.
//
// Every failure that crosses a package boundary is tagged with a [Code] so
// command handlers can branch on what went wrong without string matching:
//
//	err := errors.New(errors.ErrCodeNoTerraform, "no .tf files in %s", repo)
//	if errors.Is(err, errors.ErrCodeNoTerraform) {
//		// skip the repository instead of failing the run
//	}
//
// Wrapping keeps the cause chain intact for the standard library's
// errors.Is/errors.As:
//
//	return errors.Wrap(errors.ErrCodeCloneFailed, err, "clone %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a failure class. Codes are stable strings, safe to log
// and to match on.
type Code string

const (
	// Validation failures on user or LLM supplied data.
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidComponent Code = "INVALID_COMPONENT"
	ErrCodeInvalidFlow      Code = "INVALID_FLOW"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidRepoURL   Code = "INVALID_REPO_URL"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	// Diagram extraction and build failures.
	ErrCodeExtractionFailed Code = "EXTRACTION_FAILED"
	ErrCodeCycleDetected    Code = "CYCLE_DETECTED"

	// Missing resources.
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeNoTerraform     Code = "NO_TERRAFORM_FILES"

	// Network and remote service failures.
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Authentication and session failures.
	ErrCodeUnauthorized   Code = "UNAUTHORIZED"
	ErrCodeForbidden      Code = "FORBIDDEN"
	ErrCodeSessionExpired Code = "SESSION_EXPIRED"
	ErrCodeAuthFailed     Code = "AUTH_FAILED"

	// Failures in external tools the CLI shells out to or calls.
	ErrCodeCloneFailed Code = "CLONE_FAILED"
	ErrCodeLLMFailed   Code = "LLM_FAILED"

	// Everything else.
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error pairs a code with a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

// Unwrap exposes the cause to the standard errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error from a code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around an existing cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// GetCode returns the code of the first Error in err's chain, or the empty
// string when the chain holds no Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// UserMessage returns the message of the first Error in err's chain without
// its code prefix. Non-Error values render through their Error method.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError reports a rate-limited response together with the
// server's requested wait, when the server sent one.
type RateLimitedError struct {
	RetryAfter int // seconds, 0 when the server gave no hint
	Message    string
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns ErrCodeRateLimited.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
