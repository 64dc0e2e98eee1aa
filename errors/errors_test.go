package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitErrorFormat(t *testing.T) {
	err := NewRangeError("SLICE_OUT_OF_RANGE", "slice [0:9) exceeds 8 bits").
		WithContext("stop", 9).
		WithContext("len", 8)
	assert.Equal(t, "[RANGE][SLICE_OUT_OF_RANGE] slice [0:9) exceeds 8 bits (len=8, stop=9)", err.Error())

	wrapped := WrapError(io.ErrUnexpectedEOF, "READ_ERROR", "failed to read input")
	assert.Equal(t, "[SYSTEM][READ_ERROR] failed to read input: unexpected EOF", wrapped.Error())
	assert.Equal(t, SeverityError, wrapped.Severity)
}

func TestBitErrorIs(t *testing.T) {
	err := fmt.Errorf("decoding: %w", NewParseError("BAD_HEX", "bad hex digit"))

	assert.ErrorIs(t, err, ErrParse)
	assert.NotErrorIs(t, err, ErrRange)
	assert.ErrorIs(t, err, &BitError{Kind: KindParse, Code: "BAD_HEX"})
	assert.NotErrorIs(t, err, &BitError{Kind: KindParse, Code: "BAD_BINARY"})

	assert.ErrorIs(t, NewUnknownFieldError("c"), ErrUnknownField)
	assert.ErrorIs(t, WrapError(io.EOF, "X", "x"), io.EOF)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{NewInvalidValueError("NEGATIVE", "negative"), KindInvalidValue},
		{NewIndexError("BIT_OUT_OF_RANGE", "index 9"), KindIndex},
		{fmt.Errorf("outer: %w", NewOverflowError("TOO_WIDE", "too wide")), KindOverflow},
		{stderrors.New("plain"), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err))
	}
}

func TestUnknownFieldContext(t *testing.T) {
	err := NewUnknownFieldError("flags")
	assert.Equal(t, "flags", err.Context["field"])
	assert.Contains(t, err.Error(), `unknown field "flags"`)
}

func TestDefaultErrorHandler(t *testing.T) {
	h := NewDefaultErrorHandler()

	assert.Nil(t, h.Handle(nil))
	handled := h.Handle(stderrors.New("boom"))
	require.NotNil(t, handled)
	assert.Equal(t, KindSystem, handled.Kind)
	assert.Equal(t, "UNKNOWN_ERROR", handled.Code)

	assert.Equal(t, RecoveryActionLog, h.Recover(NewOverflowError("TOO_WIDE", "x")).Action)
	assert.Equal(t, RecoveryActionAbort, h.Recover(NewSystemError("READ_ERROR", "x")).Action)
	assert.Equal(t, RecoveryActionLog, h.Recover(nil).Action)

	h.AbortOnSystemError = false
	assert.Equal(t, RecoveryActionLog, h.Recover(NewSystemError("READ_ERROR", "x")).Action)
}

func TestHandlerWrapKeepsKind(t *testing.T) {
	h := NewDefaultErrorHandler()
	assert.Nil(t, h.Wrap(nil, "X", "x"))

	err := h.Wrap(NewRangeError("SLICE_OUT_OF_RANGE", "x"), "SET_FAILED", "set failed",
		WithSeverityOption(SeverityWarning), WithContextOption("field", "a"))
	assert.Equal(t, KindRange, err.Kind)
	assert.Equal(t, SeverityWarning, err.Severity)
	assert.Equal(t, "a", err.Context["field"])
	assert.ErrorIs(t, err, ErrRange)

	plain := h.Wrap(io.EOF, "READ", "read")
	assert.Equal(t, KindSystem, plain.Kind)
}

func TestSentinelsStayClean(t *testing.T) {
	before := ErrRange.Error()
	err := NewRangeError("SLICE_OUT_OF_RANGE", "x").WithContext("stop", 9)

	assert.ErrorIs(t, err, ErrRange)
	assert.Equal(t, before, ErrRange.Error())
	assert.NotContains(t, ErrRange.Error(), "stop")

	_, isBitError := ErrRange.(*BitError)
	assert.False(t, isBitError)
	assert.NotErrorIs(t, ErrRange, ErrParse)
	assert.NotErrorIs(t, stderrors.New("range"), ErrRange)
}
