// Package errors provides coded errors for sheetpack.
//
// Every failure the packer, the pipeline or a backend reports carries a
// [Code], so the CLI and the HTTP server can branch on the class of failure
// without matching message text.
//
//	err := errors.New(errors.ErrCodeInvalidInput, "sprite %q has zero width", id)
//	if errors.Is(err, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidImage) {
//	    // reject the request
//	}
//
//	err = errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code is a machine-readable failure class.
type Code string

const (
	// Caller input. Every code here starts with "INVALID_", see [Code.Invalid].
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidImage  Code = "INVALID_IMAGE"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// ErrCodeInsufficientSpace means no trial sheet within the maximum
	// bounds held every sprite.
	ErrCodeInsufficientSpace Code = "INSUFFICIENT_SPACE"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeConflict     Code = "ALREADY_EXISTS"

	// Cache and storage backends.
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Invalid reports whether c blames the caller's input.
func (c Code) Invalid() bool {
	return strings.HasPrefix(string(c), "INVALID_")
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// Is reports whether the outermost *Error in err's chain has one of codes.
func Is(err error, codes ...Code) bool {
	got := GetCode(err)
	if got == "" {
		return false
	}
	for _, c := range codes {
		if got == c {
			return true
		}
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or "" when
// there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Classify is GetCode with fallbacks for uncoded errors: an expired context
// deadline is [ErrCodeTimeout] and anything else is [ErrCodeInternal].
func Classify(err error) Code {
	if code := GetCode(err); code != "" {
		return code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	return ErrCodeInternal
}

// UserMessage returns the message of a coded error without its code, or
// err.Error() for any other error.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
