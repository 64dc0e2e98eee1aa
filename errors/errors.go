package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies a BitError. Every failure raised by the bit
// containers maps to exactly one kind.
type ErrorKind string

const (
	KindParse        ErrorKind = "PARSE"
	KindInvalidValue ErrorKind = "INVALID_VALUE"
	KindIndex        ErrorKind = "INDEX"
	KindRange        ErrorKind = "RANGE"
	KindOverflow     ErrorKind = "OVERFLOW"
	KindUnknownField ErrorKind = "UNKNOWN_FIELD"
	KindSystem       ErrorKind = "SYSTEM"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo    ErrorSeverity = "INFO"
	SeverityWarning ErrorSeverity = "WARNING"
	SeverityError   ErrorSeverity = "ERROR"
)

// BitError represents a structured error with a machine readable code
type BitError struct {
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Context  map[string]interface{} `json:"context,omitempty"`
	Severity ErrorSeverity          `json:"severity"`
	Kind     ErrorKind              `json:"kind"`
	Cause    error                  `json:"-"`
}

// Sentinels for errors.Is. They match any BitError of the same kind and are
// plain values, so nothing can attach context to them.
var (
	ErrParse        error = kindError(KindParse)
	ErrInvalidValue error = kindError(KindInvalidValue)
	ErrIndex        error = kindError(KindIndex)
	ErrRange        error = kindError(KindRange)
	ErrOverflow     error = kindError(KindOverflow)
	ErrUnknownField error = kindError(KindUnknownField)
)

// kindError is the sentinel type behind ErrParse and friends
type kindError ErrorKind

func (k kindError) Error() string {
	return fmt.Sprintf("[%s] error", string(k))
}

// Error implements the error interface
func (e *BitError) Error() string {
	var builder strings.Builder

	// Format: [KIND][CODE] message
	builder.WriteString(fmt.Sprintf("[%s][%s] %s", e.Kind, e.Code, e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		builder.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		builder.WriteString(")")
	}

	if e.Cause != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Cause.Error())
	}

	return builder.String()
}

// Unwrap returns the underlying error
func (e *BitError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a BitError of the same kind. A target with
// a code set must match the code as well.
func (e *BitError) Is(target error) bool {
	if kind, ok := target.(kindError); ok {
		return ErrorKind(kind) == e.Kind
	}
	other, ok := target.(*BitError)
	if !ok {
		return false
	}
	if other.Kind != e.Kind {
		return false
	}
	return other.Code == "" || other.Code == e.Code
}

// WithContext adds context information to the error
func (e *BitError) WithContext(key string, value interface{}) *BitError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the severity level for the error
func (e *BitError) WithSeverity(severity ErrorSeverity) *BitError {
	e.Severity = severity
	return e
}

// Wrap wraps another error
func (e *BitError) Wrap(err error) *BitError {
	e.Cause = err
	return e
}

func newError(kind ErrorKind, code, message string) *BitError {
	return &BitError{
		Code:     code,
		Message:  message,
		Severity: SeverityError,
		Kind:     kind,
	}
}

// NewParseError reports malformed binary, hex or decimal text
func NewParseError(code, message string) *BitError {
	return newError(KindParse, code, message)
}

// NewInvalidValueError reports a negative magnitude or an otherwise illegal operand
func NewInvalidValueError(code, message string) *BitError {
	return newError(KindInvalidValue, code, message)
}

// NewIndexError reports a single-bit index outside the current representation
func NewIndexError(code, message string) *BitError {
	return newError(KindIndex, code, message)
}

// NewRangeError reports a bit range beyond the current length or a value too
// wide for the targeted span
func NewRangeError(code, message string) *BitError {
	return newError(KindRange, code, message)
}

// NewOverflowError reports a write that would exceed a fixed width
func NewOverflowError(code, message string) *BitError {
	return newError(KindOverflow, code, message)
}

// NewUnknownFieldError reports a field name absent from a schema
func NewUnknownFieldError(name string) *BitError {
	return newError(KindUnknownField, "UNKNOWN_FIELD", fmt.Sprintf("unknown field %q", name)).
		WithContext("field", name)
}

// NewSystemError creates an error for failures outside the bit containers
// (I/O, terminal, configuration).
func NewSystemError(code, message string) *BitError {
	return newError(KindSystem, code, message)
}

// WrapError wraps an existing error into a system BitError
func WrapError(err error, code, message string) *BitError {
	return NewSystemError(code, message).Wrap(err)
}

// AsBitError finds the first BitError in err's chain
func AsBitError(err error) (*BitError, bool) {
	for err != nil {
		if bitErr, ok := err.(*BitError); ok {
			return bitErr, true
		}
		wrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = wrapper.Unwrap()
	}
	return nil, false
}

// KindOf returns the kind of the first BitError in err's chain, or an empty
// kind when there is none.
func KindOf(err error) ErrorKind {
	if bitErr, ok := AsBitError(err); ok {
		return bitErr.Kind
	}
	return ""
}
