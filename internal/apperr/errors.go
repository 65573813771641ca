// Package apperr defines the coded error type shared by every tool and
// API surface, plus sentinel errors for errors.Is checks.
package apperr

import (
	"errors"
	"fmt"
)

// Error codes carried in tool and API error envelopes.
const (
	CodeMissingParameter = "MISSING_PARAMETER"
	CodeInvalidPath      = "INVALID_PATH"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeNoteNotFound     = "NOTE_NOT_FOUND"
	CodeFileExists       = "FILE_EXISTS"
	CodePathIsFolder     = "PATH_IS_FOLDER"
	CodeReadError        = "READ_ERROR"
	CodeSearchError      = "SEARCH_ERROR"
	CodeAppendError      = "APPEND_ERROR"
	CodeCreateError      = "CREATE_ERROR"
	CodeRelatedNotes     = "RELATED_NOTES_ERROR"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
)

// Error is a coded error suitable for serialization into the response
// envelope. Suggestions is populated only for NOTE_NOT_FOUND.
type Error struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
	cause       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is chains.
func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error that unwraps to cause.
func Wrap(code string, cause error) *Error {
	return &Error{Code: code, Message: cause.Error(), cause: cause}
}

// NotFound creates a NOTE_NOT_FOUND error with similar-path suggestions.
func NotFound(path string, suggestions []string) *Error {
	return &Error{
		Code:        CodeNoteNotFound,
		Message:     fmt.Sprintf("note not found: %s", path),
		Suggestions: suggestions,
		cause:       ErrNotFound,
	}
}

// As returns err as a *Error, wrapping uncoded errors under fallback so the
// envelope always carries a code.
func As(err error, fallback string) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Wrap(fallback, err)
}
