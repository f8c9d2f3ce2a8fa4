package models

import (
	"context"
	"errors"
	"fmt"
)

// Error codes used in logs and internal error handling.
const (
	ErrCodeTimeout         = "PARSE_TIMEOUT"
	ErrCodeNavigation      = "NAVIGATION_FAILED"
	ErrCodeSelectorTimeout = "SELECTOR_TIMEOUT"
	ErrCodeBrowserCrash    = "BROWSER_CRASH"
	ErrCodeFetch           = "FETCH_FAILED"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeExtraction      = "EXTRACTION_FAILED"
	ErrCodeOutput          = "OUTPUT_FAILED"
)

// ParseError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ParseError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(code, message string, err error) *ParseError {
	return &ParseError{Code: code, Message: message, Err: err}
}

// CodeOf returns the error code of err. Untyped errors are classified by
// their context state; anything else maps to FETCH_FAILED.
func CodeOf(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	default:
		return ErrCodeFetch
	}
}
