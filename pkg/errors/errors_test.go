package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "basic error",
			err:      New(ErrCodeBranchNotFound, "Branch missing"),
			expected: "[TRLE3002] ERROR: Branch missing",
		},
		{
			name: "error with suggestions",
			err: New(ErrCodeBranchNotFound, "Branch missing").
				WithSuggestions("Check spelling", "List branches"),
			expected: "[TRLE3002] ERROR: Branch missing\nSuggestions:\n  1. Check spelling\n  2. List branches",
		},
		{
			name: "error with context",
			err: New(ErrCodeBranchNotFound, "Branch missing").
				WithContext("refname", "refs/heads/x"),
			expected: "[TRLE3002] ERROR: Branch missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := fmt.Errorf("object not found")

	appErr := Wrap(baseErr, ErrCodeGit, "Failed to resolve commit")

	if appErr.Cause != baseErr {
		t.Error("Wrapped error should contain original error as cause")
	}
	if !errors.Is(appErr, baseErr) {
		t.Error("errors.Is should see the cause through Unwrap")
	}
	if !strings.Contains(appErr.Error(), "Caused by: object not found") {
		t.Errorf("Expected cause in message, got %q", appErr.Error())
	}
	if Wrap(nil, ErrCodeGit, "nothing") != nil {
		t.Error("Wrapping nil should return nil")
	}
}

func TestWrapInheritsContext(t *testing.T) {
	inner := New(ErrCodeBranchNotFound, "missing").WithContext("refname", "refs/heads/a")
	outer := Wrap(inner, ErrCodeGit, "lookup failed")

	if outer.Context["refname"] != "refs/heads/a" {
		t.Errorf("Expected inherited context, got %v", outer.Context)
	}
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("listing: %w", NoTargetError("/tmp/state", nil))

	if !errors.Is(err, ErrNoTarget) {
		t.Error("Expected error to match ErrNoTarget")
	}
	if errors.Is(err, ErrBranchNotFound) {
		t.Error("Did not expect error to match ErrBranchNotFound")
	}
	if GetErrorCode(err) != ErrCodeTargetNotConfigured {
		t.Errorf("Expected %s, got %s", ErrCodeTargetNotConfigured, GetErrorCode(err))
	}
	if GetErrorCode(fmt.Errorf("plain")) != ErrCodeInternal {
		t.Error("Expected plain errors to map to ErrCodeInternal")
	}
}

func TestCommonConstructors(t *testing.T) {
	branchErr := BranchNotFoundError("refs/heads/nope")
	if !errors.Is(branchErr, ErrBranchNotFound) {
		t.Error("BranchNotFoundError should match ErrBranchNotFound")
	}
	if len(branchErr.Suggestions) == 0 {
		t.Error("BranchNotFoundError should carry suggestions")
	}

	lockErr := LockError("/repo/.lock", fmt.Errorf("resource busy"))
	if !errors.Is(lockErr, ErrLockFailed) {
		t.Error("LockError should match ErrLockFailed")
	}
	if lockErr.Context["lock_path"] != "/repo/.lock" {
		t.Errorf("Expected lock_path context, got %v", lockErr.Context)
	}

	valErr := ValidationError("path", "../x", "escapes root")
	if valErr.Severity != SeverityWarning {
		t.Errorf("Expected warning severity, got %s", valErr.Severity)
	}
	if !errors.Is(valErr, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
}

func TestRecoverPanic(t *testing.T) {
	run := func(fn func()) (err error) {
		defer RecoverPanic(&err)
		fn()
		return nil
	}

	if err := run(func() {}); err != nil {
		t.Fatalf("Expected no error without a panic, got %v", err)
	}

	err := run(func() { panic("commit timestamp -1 is before the unix epoch") })
	if GetErrorCode(err) != ErrCodeInternal {
		t.Fatalf("Expected internal error code, got %s", GetErrorCode(err))
	}
	if !strings.Contains(err.Error(), "before the unix epoch") {
		t.Errorf("Expected panic value in message, got %q", err.Error())
	}

	sentinel := fmt.Errorf("boom")
	err = run(func() { panic(sentinel) })
	if !errors.Is(err, sentinel) {
		t.Error("Panicked errors should stay matchable")
	}
}
