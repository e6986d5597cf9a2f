package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatConfig     ErrorCategory = "config"     // Configuration failure
	ErrCatProvider   ErrorCategory = "provider"   // LLM provider failure
	ErrCatExecution  ErrorCategory = "execution"  // Runtime failure
	ErrCatState      ErrorCategory = "state"      // Run-state artifact failure
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatValidation,
		Code:     code,
		Message:  message,
	}
}

// ErrConfigParse creates a config parse error. Fatal at startup and never
// part of the loop state machine.
func ErrConfigParse(path string, cause error) *DomainError {
	return &DomainError{
		Category: ErrCatConfig,
		Code:     CodeConfigParseFailed,
		Message:  fmt.Sprintf("invalid JSON in config file %s", path),
		Cause:    cause,
	}
}

// ErrNoProvider creates the error returned when no LLM provider probe
// succeeds. Fatal for the run; the iteration loop is never entered.
func ErrNoProvider() *DomainError {
	return &DomainError{
		Category: ErrCatProvider,
		Code:     CodeNoProvider,
		Message:  "no LLM provider available: configure Ollama, a Claude API key, or install the amp CLI",
	}
}

// ErrProviderCall creates an error for a failed chat exchange. Contained at
// iteration granularity by the loop.
func ErrProviderCall(provider string, cause error) *DomainError {
	return &DomainError{
		Category: ErrCatProvider,
		Code:     CodeProviderCallFailed,
		Message:  fmt.Sprintf("provider %s call failed", provider),
		Cause:    cause,
	}
}

// ErrState creates a run-state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatState,
		Code:     code,
		Message:  message,
	}
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeConfigParseFailed  = "CONFIG_PARSE_FAILED"
	CodeNoProvider         = "NO_PROVIDER"
	CodeProviderCallFailed = "PROVIDER_CALL_FAILED"
	CodeUnknownProvider    = "UNKNOWN_PROVIDER"
	CodePromptUnreadable   = "PROMPT_UNREADABLE"
	CodeArchiveFailed      = "ARCHIVE_FAILED"
)
