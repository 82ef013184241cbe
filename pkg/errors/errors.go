// Package errors defines the fatal-error taxonomy for the condensed
// multi-summary assembler.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the assembler. Every fatal condition the core reports
// is one of these.
const (
	CodeInputNotFound      = "INPUT_NOT_FOUND"
	CodeTruncatedRecord    = "TRUNCATED_RECORD"
	CodeMalformedJson      = "MALFORMED_JSON"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodeOverflowViolation  = "OVERFLOW_VIOLATION"
	CodeIoError            = "IO_ERROR"
)

// AppError represents a fatal assembler error with a diagnostic locating
// the stage, file, and record index at which it occurred.
type AppError struct {
	Code    string
	Message string
	Stage   string
	File    string
	Record  int64 // -1 if not applicable
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	loc := e.Stage
	if e.File != "" {
		loc = fmt.Sprintf("%s file=%s", loc, e.File)
	}
	if e.Record >= 0 {
		loc = fmt.Sprintf("%s record=%d", loc, e.Record)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s (%s): %v", e.Code, e.Message, loc, e.Err)
	}
	return fmt.Sprintf("[%s] %s (%s)", e.Code, e.Message, loc)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError with no diagnostic location set.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message, Record: -1}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err, Record: -1}
}

// WithLocation returns a copy of e with the diagnostic location filled in.
func (e *AppError) WithLocation(stage, file string, record int64) *AppError {
	n := *e
	n.Stage = stage
	n.File = file
	n.Record = record
	return &n
}

// Common error instances, matched via errors.Is.
var (
	ErrInputNotFound      = New(CodeInputNotFound, "required input file is missing")
	ErrTruncatedRecord    = New(CodeTruncatedRecord, "end of file occurred mid-record")
	ErrMalformedJson      = New(CodeMalformedJson, "required field missing or wrong type")
	ErrInvariantViolation = New(CodeInvariantViolation, "input partition artifacts disagree with themselves")
	ErrOverflowViolation  = New(CodeOverflowViolation, "value exceeds the declared width")
	ErrIoError            = New(CodeIoError, "I/O failure")
)

// IsTruncatedRecord reports whether err is (or wraps) a truncated-record error.
func IsTruncatedRecord(err error) bool {
	return errors.Is(err, ErrTruncatedRecord)
}

// IsInvariantViolation reports whether err is (or wraps) an invariant violation.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// GetErrorCode extracts the error code from an error, or CodeIoError if
// err does not wrap an AppError.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeIoError
}
