// internal/form/field.go
//
// formscribe – Forms engine: field descriptors and capabilities.
//
// Context
//   A Descriptor is the static declaration of one field: how it is addressed
//   in the raw data (exact Key, or the RegexKey/RegexGroup/RegexGroupKey
//   triple), which other fields it depends on, and when it is active.  The
//   behaviour itself lives behind the Field capability interface so authors
//   can plug closures (Funcs) or their own types (Descriptor.New).
//
//   A fresh Field instance is built for every Form pass.  Instances are never
//   shared between forms, so custom construction may precompute state that
//   Validate and Submit read later.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
)

// ValidateFunc turns a raw input value into a validated value.
type ValidateFunc func(raw any) (any, error)

// SubmitFunc consumes a validated value.
type SubmitFunc func(value any) error

// Field is the behaviour of one field instance.
type Field interface {
	Validate(raw any) (any, error)
	Submit(value any) error
}

// Enabler is implemented by fields whose activation depends on instance state.
type Enabler interface {
	Enabled() bool
}

// Funcs adapts plain closures to Field.  A nil hook reports ErrNotImplemented.
type Funcs struct {
	ValidateFn ValidateFunc
	SubmitFn   SubmitFunc
	EnabledFn  func() bool
}

// Validate implements Field.
func (f Funcs) Validate(raw any) (any, error) {
	if f.ValidateFn == nil {
		return nil, ErrNotImplemented
	}
	return f.ValidateFn(raw)
}

// Submit implements Field.
func (f Funcs) Submit(value any) error {
	if f.SubmitFn == nil {
		return ErrNotImplemented
	}
	return f.SubmitFn(value)
}

// Enabled implements Enabler.  A nil predicate means always enabled.
func (f Funcs) Enabled() bool { return f.EnabledFn == nil || f.EnabledFn() }

// Always returns a predicate that ignores its closure and yields b.
func Always(b bool) func() bool { return func() bool { return b } }

// Descriptor declares one field.  Exactly one addressing mode must be set.
type Descriptor struct {
	ID string // keyword-mapping identity, unique per definition

	Key string // exact lookup key

	RegexKey      string // pattern matched against every source key
	RegexGroup    string // group name shared by sibling regex fields
	RegexGroupKey string // key of this field inside each group instance

	WhenValidated []string       // keys of fields that must have been attempted
	WhenValue     map[string]any // keys of fields that must validate to the value

	Enabled func() bool // activation predicate, nil means enabled

	Validate ValidateFunc // used when New is nil
	Submit   SubmitFunc   // used when New is nil

	New func() Field // custom construction, optional

	re *regexp.Regexp
}

// IsRegex reports whether d uses regex addressing.
func (d *Descriptor) IsRegex() bool { return d.RegexKey != "" }

// Pattern returns the compiled, fully anchored regex, or nil for key fields.
func (d *Descriptor) Pattern() *regexp.Regexp { return d.re }

// instance builds the per-pass Field.
func (d *Descriptor) instance() Field {
	if d.New != nil {
		if f := d.New(); f != nil {
			return f
		}
	}
	return Funcs{ValidateFn: d.Validate, SubmitFn: d.Submit}
}

// active evaluates the descriptor predicate and, when present, the
// instance's own Enabler.
func (d *Descriptor) active(f Field) bool {
	if d.Enabled != nil && !d.Enabled() {
		return false
	}
	if e, ok := f.(Enabler); ok && !e.Enabled() {
		return false
	}
	return true
}

// clone copies d deeply enough that later edits by the author do not leak
// into a built Definition.
func (d *Descriptor) clone() *Descriptor {
	c := *d
	c.WhenValidated = slices.Clone(d.WhenValidated)
	c.WhenValue = maps.Clone(d.WhenValue)
	return &c
}

// prepare enforces the addressing invariant and compiles RegexKey.
func (d *Descriptor) prepare() error {
	invalid := func(format string, args ...any) error {
		return &InvalidFieldError{Field: d.ID, Reason: fmt.Sprintf(format, args...)}
	}

	regexSet := 0
	for _, s := range []string{d.RegexKey, d.RegexGroup, d.RegexGroupKey} {
		if s != "" {
			regexSet++
		}
	}

	switch {
	case d.Key != "" && regexSet > 0:
		return invalid("key and regex addressing are mutually exclusive")
	case d.Key == "" && regexSet == 0:
		return invalid("missing key or regex_key/regex_group/regex_group_key")
	case regexSet > 0 && regexSet < 3:
		return invalid("regex_key, regex_group, and regex_group_key must be set together")
	}

	if d.IsRegex() {
		re, err := regexp.Compile(`^(?:` + d.RegexKey + `)$`)
		if err != nil {
			return invalid("regex_key: %v", err)
		}
		d.re = re
	}
	return nil
}

// Check validates value with a standalone instance of d, outside any form.
// A malformed declaration fails with *InvalidFieldError.  ErrNotImplemented
// is returned unchanged so a missing Validate hook is a hard fault here.
func Check(d *Descriptor, value any) (any, error) {
	if d == nil {
		return nil, &InvalidFieldError{Reason: "nil descriptor"}
	}
	c := d.clone()
	if err := c.prepare(); err != nil {
		return nil, err
	}
	return c.instance().Validate(value)
}
