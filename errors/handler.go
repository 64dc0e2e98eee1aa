package errors

import (
	"fmt"
)

// ErrorOption is a function that modifies a BitError
type ErrorOption func(*BitError)

// WithSeverityOption sets the severity level for the error
func WithSeverityOption(severity ErrorSeverity) ErrorOption {
	return func(e *BitError) {
		e.Severity = severity
	}
}

// WithContextOption adds context information to the error
func WithContextOption(key string, value interface{}) ErrorOption {
	return func(e *BitError) {
		_ = e.WithContext(key, value)
	}
}

// RecoveryAction represents what a caller does after a failed operation
type RecoveryAction string

const (
	// RecoveryActionLog reports the error and moves on to the next operation
	RecoveryActionLog RecoveryAction = "LOG"
	// RecoveryActionAbort stops the surrounding session
	RecoveryActionAbort RecoveryAction = "ABORT"
)

// RecoveryStrategy represents the decision taken for an error
type RecoveryStrategy struct {
	Action  RecoveryAction `json:"action"`
	Message string         `json:"message"`
}

// ErrorHandler defines the interface for handling errors
type ErrorHandler interface {
	// Handle normalises an error into a BitError
	Handle(err error) *BitError

	// Recover decides how the caller proceeds after err
	Recover(err error) RecoveryStrategy

	// Wrap wraps an error with additional context
	Wrap(err error, code, message string, options ...ErrorOption) *BitError
}

// DefaultErrorHandler is the default implementation of ErrorHandler.
// Contract violations end the operation, never the session; system errors
// abort when AbortOnSystemError is set.
type DefaultErrorHandler struct {
	AbortOnSystemError bool
}

// NewDefaultErrorHandler creates a new default error handler
func NewDefaultErrorHandler() *DefaultErrorHandler {
	return &DefaultErrorHandler{AbortOnSystemError: true}
}

// Handle processes an error and returns it as a BitError
func (h *DefaultErrorHandler) Handle(err error) *BitError {
	if err == nil {
		return nil
	}

	if bitErr, ok := AsBitError(err); ok {
		return bitErr
	}

	return WrapError(err, "UNKNOWN_ERROR", "unexpected failure")
}

// Recover returns the recovery strategy for err
func (h *DefaultErrorHandler) Recover(err error) RecoveryStrategy {
	bitErr := h.Handle(err)
	if bitErr == nil {
		return RecoveryStrategy{Action: RecoveryActionLog}
	}

	action := RecoveryActionLog
	if bitErr.Kind == KindSystem && h.AbortOnSystemError {
		action = RecoveryActionAbort
	}

	return RecoveryStrategy{
		Action:  action,
		Message: fmt.Sprintf("%s error: %s", bitErr.Kind, bitErr.Message),
	}
}

// Wrap wraps an error with additional context
func (h *DefaultErrorHandler) Wrap(err error, code, message string, options ...ErrorOption) *BitError {
	if err == nil {
		return nil
	}

	kind := KindOf(err)
	if kind == "" {
		kind = KindSystem
	}

	bitErr := newError(kind, code, message).Wrap(err)
	for _, option := range options {
		option(bitErr)
	}

	return bitErr
}
