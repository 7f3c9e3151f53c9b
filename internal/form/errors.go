// internal/form/errors.go
//
// formscribe – Forms engine: error taxonomy.
//
// Context
//   Three error kinds leave the engine.  InvalidFieldError is structural and
//   fatal; it aborts definition building and form construction.
//   ValidationError and SubmitError are accumulated on the Form in insertion
//   order and never abort a pass.  ErrNotImplemented marks a hook that was
//   deliberately left blank; orchestration swallows it, direct callers see it.
//
//   Messages are opaque.  Any value may be carried, so templates can receive
//   message IDs, translated strings, or structured payloads.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
)

// ErrNotImplemented is returned by a Field hook that was not provided.
var ErrNotImplemented = errors.New("form: hook not implemented")

// InvalidFieldError reports a malformed field declaration.
type InvalidFieldError struct {
	Field  string // field identity, may be empty
	Reason string
}

func (e *InvalidFieldError) Error() string {
	if e.Field == "" {
		return "form: invalid field: " + e.Reason
	}
	return fmt.Sprintf("form: invalid field %q: %s", e.Field, e.Reason)
}

// ValidationError is raised by a field or whole-form Validate hook.
type ValidationError struct {
	Field   string // empty for whole-form errors; set by the engine
	Message any
	Err     error // optional cause
}

// NewValidationError returns a *ValidationError carrying msg.
func NewValidationError(msg any) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return describe("validation", e.Field, e.Message) }

func (e *ValidationError) Unwrap() error { return e.Err }

// SubmitError is raised by a field or whole-form Submit hook.
type SubmitError struct {
	Field   string
	Message any
	Err     error
}

// NewSubmitError returns a *SubmitError carrying msg.
func NewSubmitError(msg any) *SubmitError {
	return &SubmitError{Message: msg}
}

func (e *SubmitError) Error() string { return describe("submit", e.Field, e.Message) }

func (e *SubmitError) Unwrap() error { return e.Err }

func describe(kind, field string, msg any) string {
	if field == "" {
		return fmt.Sprintf("form %s failed: %v", kind, msg)
	}
	return fmt.Sprintf("field %q %s failed: %v", field, kind, msg)
}

// Message returns the opaque payload carried by err, or nil when err is not
// a ValidationError or SubmitError.
func Message(err error) any {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var se *SubmitError
	if errors.As(err, &se) {
		return se.Message
	}
	return nil
}

// Messages maps Message over errs, preserving order.
func Messages(errs []error) []any {
	out := make([]any, 0, len(errs))
	for _, err := range errs {
		out = append(out, Message(err))
	}
	return out
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsSubmitError reports whether err wraps a *SubmitError.
func IsSubmitError(err error) bool {
	var se *SubmitError
	return errors.As(err, &se)
}

// asValidation normalises any hook error into a *ValidationError tagged with
// the field identity.  ok is false for ErrNotImplemented.
func asValidation(id string, err error) (ve *ValidationError, ok bool) {
	if errors.Is(err, ErrNotImplemented) {
		return nil, false
	}
	if !errors.As(err, &ve) {
		ve = &ValidationError{Message: err.Error(), Err: err}
	}
	if ve.Field == "" {
		c := *ve // never mutate a value the hook may share
		c.Field = id
		ve = &c
	}
	return ve, true
}

// asSubmit is the SubmitError twin of asValidation.
func asSubmit(id string, err error) (se *SubmitError, ok bool) {
	if errors.Is(err, ErrNotImplemented) {
		return nil, false
	}
	if !errors.As(err, &se) {
		se = &SubmitError{Message: err.Error(), Err: err}
	}
	if se.Field == "" {
		c := *se
		c.Field = id
		se = &c
	}
	return se, true
}
