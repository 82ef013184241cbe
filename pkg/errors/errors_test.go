package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeInputNotFound, "required input file is missing"),
			expected: "[INPUT_NOT_FOUND] required input file is missing ()",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeIoError, "write failed", errors.New("disk full")),
			expected: "[IO_ERROR] write failed (): disk full",
		},
		{
			name: "with location",
			err: New(CodeTruncatedRecord, "end of file mid-record").
				WithLocation("replay", "outcome-0003.txt", 12),
			expected: "[TRUNCATED_RECORD] end of file mid-record (replay file=outcome-0003.txt record=12)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeInvariantViolation, "partition disagreement", underlying)

	assert.Equal(t, underlying, err.Unwrap())
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeMalformedJson, "error 1")
	err2 := New(CodeMalformedJson, "error 2")
	err3 := New(CodeOverflowViolation, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsTruncatedRecord(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "truncated record error",
			err:      ErrTruncatedRecord,
			expected: true,
		},
		{
			name:     "wrapped truncated record error",
			err:      Wrap(CodeTruncatedRecord, "eof mid-record", errors.New("unexpected EOF")),
			expected: true,
		},
		{
			name:     "other error",
			err:      ErrMalformedJson,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTruncatedRecord(tt.err))
		})
	}
}

func TestIsInvariantViolation(t *testing.T) {
	assert.True(t, IsInvariantViolation(ErrInvariantViolation))
	assert.False(t, IsInvariantViolation(ErrTruncatedRecord))
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeOverflowViolation, "value exceeds declared width"),
			expected: CodeOverflowViolation,
		},
		{
			name:     "wrapped app error",
			err:      Wrap(CodeMalformedJson, "missing field", errors.New("inner")),
			expected: CodeMalformedJson,
		},
		{
			name:     "standard error falls back to CodeIoError",
			err:      errors.New("standard error"),
			expected: CodeIoError,
		},
		{
			name:     "nil error falls back to CodeIoError",
			err:      nil,
			expected: CodeIoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCode(tt.err))
		})
	}
}

func TestCommonErrorCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		code string
	}{
		{ErrInputNotFound, CodeInputNotFound},
		{ErrTruncatedRecord, CodeTruncatedRecord},
		{ErrMalformedJson, CodeMalformedJson},
		{ErrInvariantViolation, CodeInvariantViolation},
		{ErrOverflowViolation, CodeOverflowViolation},
		{ErrIoError, CodeIoError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestWithLocationDoesNotMutateReceiver(t *testing.T) {
	base := New(CodeIoError, "write failed")
	located := base.WithLocation("assemble", "graph.bin", 7)

	assert.Empty(t, base.Stage)
	assert.Empty(t, base.File)
	assert.Equal(t, int64(-1), base.Record)

	assert.Equal(t, "assemble", located.Stage)
	assert.Equal(t, "graph.bin", located.File)
	assert.Equal(t, int64(7), located.Record)
}
