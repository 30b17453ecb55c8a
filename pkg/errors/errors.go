package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Configuration errors (2xxx)
	ErrCodeConfigInvalid       ErrorCode = "TRLE2001"
	ErrCodeTargetNotConfigured ErrorCode = "TRLE2002"

	// Repository errors (3xxx)
	ErrCodeRepoNotFound   ErrorCode = "TRLE3001"
	ErrCodeBranchNotFound ErrorCode = "TRLE3002"
	ErrCodeGit            ErrorCode = "TRLE3003"

	// Session errors (4xxx)
	ErrCodeSessionFailed ErrorCode = "TRLE4001"
	ErrCodeLockFailed    ErrorCode = "TRLE4002"
	ErrCodeSerialization ErrorCode = "TRLE4003"

	// File system errors (5xxx)
	ErrCodeFileOperation ErrorCode = "TRLE5001"

	// Validation errors (6xxx)
	ErrCodeInvalidInput ErrorCode = "TRLE6001"

	// System errors (9xxx)
	ErrCodeInternal ErrorCode = "TRLE9001"
)

// Sentinels for errors.Is checks. AppError.Is compares codes only.
var (
	ErrNoTarget       = &AppError{Code: ErrCodeTargetNotConfigured}
	ErrBranchNotFound = &AppError{Code: ErrCodeBranchNotFound}
	ErrLockFailed     = &AppError{Code: ErrCodeLockFailed}
	ErrInvalidInput   = &AppError{Code: ErrCodeInvalidInput}
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL"
	SeverityError    ErrorSeverity = "ERROR"
	SeverityWarning  ErrorSeverity = "WARNING"
	SeverityInfo     ErrorSeverity = "INFO"
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	var ae *AppError
	if errors.As(err, &ae) {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// NoTargetError reports that no target branch has been configured for a project
func NoTargetError(stateDir string, cause error) *AppError {
	var err *AppError
	if cause != nil {
		err = Wrap(cause, ErrCodeTargetNotConfigured, "No target branch configured")
	} else {
		err = New(ErrCodeTargetNotConfigured, "No target branch configured")
	}
	return err.
		WithContext("state_dir", stateDir).
		WithSuggestions(
			"Set a target with 'trunkline target set <remote>/<branch>'",
		)
}

// BranchNotFoundError reports a ref that does not resolve to a branch
func BranchNotFoundError(refname string) *AppError {
	return New(ErrCodeBranchNotFound, fmt.Sprintf("failed to find branch %s", refname)).
		WithContext("refname", refname).
		WithSuggestions(
			"List available branches with 'trunkline branches list'",
			"Check for typos in the branch name",
		)
}

// LockError reports a failure to acquire the repository write lock
func LockError(path string, cause error) *AppError {
	return Wrap(cause, ErrCodeLockFailed, "failed to acquire repository lock").
		WithContext("lock_path", path)
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}
