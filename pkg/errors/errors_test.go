package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeEmptyInput, "test message: %s", "value")

	if err.Code != ErrCodeEmptyInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeEmptyInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "EMPTY_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeWrite, cause, "failed to write")

	if err.Code != ErrCodeWrite {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeWrite)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInputFormat, "test"),
			code:     ErrCodeInputFormat,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInputFormat, "test"),
			code:     ErrCodeSolverNotFound,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeSolverExecution, New(ErrCodeInputFormat, "inner"), "outer"),
			code:     ErrCodeSolverExecution,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("solve: %w", New(ErrCodeSolverTimeout, "slow")),
			code:     ErrCodeSolverTimeout,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInputFormat,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInputFormat,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidTour, "test"),
			expected: ErrCodeInvalidTour,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeEmptyInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "Error with cause",
			err:      Wrap(ErrCodeWrite, errors.New("permission denied"), "write out.svg"),
			expected: "write out.svg: permission denied",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	pe := &ParseError{Line: 3, Content: "abc,def", Reason: "expected numbers"}
	expected := `line 3: expected numbers: "abc,def"`
	if pe.Error() != expected {
		t.Errorf("Error() = %v, want %v", pe.Error(), expected)
	}

	err := Wrap(ErrCodeInputFormat, pe, "points.txt")
	var got *ParseError
	if !errors.As(err, &got) {
		t.Fatal("errors.As should find the ParseError")
	}
	if got.Line != 3 {
		t.Errorf("Line = %d, want 3", got.Line)
	}
}
