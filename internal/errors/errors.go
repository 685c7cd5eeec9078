package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Breakdown errors (BREAKDOWN-001 to BREAKDOWN-099)
	ErrCodeMalformedBreakdown ErrorCode = "BREAKDOWN-001"
	ErrCodeEmptyBreakdown     ErrorCode = "BREAKDOWN-002"

	// Pipeline errors (PIPELINE-001 to PIPELINE-099)
	ErrCodeDecompositionFailed ErrorCode = "PIPELINE-001"
	ErrCodeReasoningFailed     ErrorCode = "PIPELINE-002"

	// Sync errors (SYNC-001 to SYNC-099)
	ErrCodeMutationNetwork ErrorCode = "SYNC-001"
	ErrCodeRefetchFailed   ErrorCode = "SYNC-002"
	ErrCodeGoalNotFound    ErrorCode = "SYNC-003"
	ErrCodeTaskNotFound    ErrorCode = "SYNC-004"
	ErrCodeSubtaskNotFound ErrorCode = "SYNC-005"

	// Provider errors (PROVIDER-001 to PROVIDER-099)
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER-001"
	ErrCodeProviderNotFound    ErrorCode = "PROVIDER-002"
	ErrCodeProviderConfig      ErrorCode = "PROVIDER-003"
	ErrCodeProviderAPI         ErrorCode = "PROVIDER-004"

	// Backend errors (BACKEND-001 to BACKEND-099)
	ErrCodeBackendStatus      ErrorCode = "BACKEND-001"
	ErrCodeBackendUnreachable ErrorCode = "BACKEND-002"
	ErrCodeBackendDecode      ErrorCode = "BACKEND-003"

	// Config errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound  ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid   ErrorCode = "CONFIG-002"
	ErrCodeConfigUnmarshal ErrorCode = "CONFIG-003"
)

// StrideError represents an enhanced error with code, suggestions, and documentation
type StrideError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *StrideError) Error() string {
	var b strings.Builder

	// Error code and message
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	// Add cause if present
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	// Add suggestions
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	// Add documentation link
	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *StrideError) Unwrap() error {
	return e.Cause
}

// New creates a new StrideError
func New(code ErrorCode, message string) *StrideError {
	return &StrideError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new StrideError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *StrideError {
	return &StrideError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *StrideError) WithSuggestion(suggestion string) *StrideError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *StrideError) WithSuggestions(suggestions ...string) *StrideError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *StrideError) WithDocs(url string) *StrideError {
	e.DocsURL = url
	return e
}

// HasCode reports whether err or any error in its chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var se *StrideError
		if stderrors.As(err, &se) {
			if se.Code == code {
				return true
			}
			err = se.Cause
			continue
		}
		return false
	}
	return false
}

// CodeOf returns the error code of the outermost StrideError in the chain,
// or an empty code if err is not a StrideError.
func CodeOf(err error) ErrorCode {
	var se *StrideError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}
