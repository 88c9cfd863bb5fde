package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the auth and document clients
// matches exactly one of these with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthRequired   = errors.New("authentication required")
	ErrAuthRejected   = errors.New("authentication rejected")
	ErrRejected       = errors.New("request rejected")
	ErrSessionInvalid = errors.New("session no longer valid")
	ErrTransport      = errors.New("transport failure")
	ErrServer         = errors.New("server error")
)

// Error carries a kind, the operation that failed and a user-facing message
type Error struct {
	Kind    error
	Op      string
	Field   string // offending input field for validation errors
	Status  int    // HTTP status when the backend answered
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewValidationError reports bad input caught before any network call
func NewValidationError(op, field, message string) error {
	return &Error{Kind: ErrValidation, Op: op, Field: field, Message: message}
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, op string, message string, err error) error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// IsKind reports whether err belongs to kind
func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf returns the sentinel kind of err, or nil for foreign errors
func KindOf(err error) error {
	for _, kind := range []error{
		ErrValidation,
		ErrAuthRequired,
		ErrAuthRejected,
		ErrRejected,
		ErrSessionInvalid,
		ErrTransport,
		ErrServer,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Message returns the user-facing text for err
func Message(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

// Field returns the offending field of a validation error, if any
func Field(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}
