package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestParseError_Error(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewParseError(ErrCodeNavigation, "navigation failed", cause)

	want := "NAVIGATION_FAILED: navigation failed: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := NewParseError(ErrCodeInvalidInput, "bad URL", nil)
	if bare.Error() != "INVALID_INPUT: bad URL" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestParseError_Unwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewParseError(ErrCodeTimeout, "timed out", cause)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"typed error",
			NewParseError(ErrCodeSelectorTimeout, "selector", nil),
			ErrCodeSelectorTimeout,
		},
		{
			"wrapped typed error",
			fmt.Errorf("outer: %w", NewParseError(ErrCodeBrowserCrash, "crash", nil)),
			ErrCodeBrowserCrash,
		},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeTimeout},
		{"unknown", errors.New("boom"), ErrCodeFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}
