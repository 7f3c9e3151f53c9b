// internal/form/decorate/decorate.go
//
// formscribe – Reusable validation decorators.
//
// Context
//   A Decorator wraps a field's Validate entry point.  It checks or coerces
//   the raw value first and then calls the wrapped function, or replaces the
//   call with a *form.ValidationError carrying the caller's message.  The
//   engine knows nothing about decorators; they only compose functions.
//
// Usage
//
//	d := &form.Descriptor{
//	    ID:       "amount",
//	    Key:      "amount",
//	    Validate: decorate.Chain(validateAmount,
//	        decorate.Required("Amount is required."),
//	        decorate.Integer("Amount must be a number.")),
//	}
//
//   Chain applies decorators outermost first, so Required runs before
//   Integer above.
//
//------------------------------------------------------------------------------

package decorate

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/yanizio/formscribe/internal/form"
)

// Decorator wraps a ValidateFunc.
type Decorator func(form.ValidateFunc) form.ValidateFunc

// Chain wraps fn with ds.  ds[0] is the outermost layer.
func Chain(fn form.ValidateFunc, ds ...Decorator) form.ValidateFunc {
	if fn == nil {
		fn = Identity
	}
	for i := len(ds) - 1; i >= 0; i-- {
		fn = ds[i](fn)
	}
	return fn
}

// Identity returns raw unchanged.
func Identity(raw any) (any, error) { return raw, nil }

// Field decorates the Validate method of any form.Field.  Submit and, when
// present, Enabled are forwarded untouched.
func Field(f form.Field, ds ...Decorator) form.Field {
	d := decorated{inner: f, validate: Chain(f.Validate, ds...)}
	if e, ok := f.(form.Enabler); ok {
		return decoratedEnabler{decorated: d, enabler: e}
	}
	return d
}

type decorated struct {
	inner    form.Field
	validate form.ValidateFunc
}

func (d decorated) Validate(raw any) (any, error) { return d.validate(raw) }
func (d decorated) Submit(v any) error            { return d.inner.Submit(v) }

type decoratedEnabler struct {
	decorated
	enabler form.Enabler
}

func (d decoratedEnabler) Enabled() bool { return d.enabler.Enabled() }

/*──────────────────────────── decorators ──────────────────────────────────*/

// Integer coerces the value to int before calling through.
func Integer(msg any) Decorator {
	return func(next form.ValidateFunc) form.ValidateFunc {
		return func(raw any) (any, error) {
			n, ok := toInt(raw)
			if !ok {
				return nil, form.NewValidationError(msg)
			}
			return next(n)
		}
	}
}

// OneOf requires the value to equal a member of set.
func OneOf(set []any, msg any) Decorator {
	return func(next form.ValidateFunc) form.ValidateFunc {
		return func(raw any) (any, error) {
			for _, m := range set {
				if reflect.DeepEqual(raw, m) {
					return next(raw)
				}
			}
			return nil, form.NewValidationError(msg)
		}
	}
}

// Required rejects a value that is empty once surrounding whitespace is
// ignored.  Trimming happens on a scratch copy; next sees the original.
func Required(msg any) Decorator {
	return func(next form.ValidateFunc) form.ValidateFunc {
		return func(raw any) (any, error) {
			scratch := raw
			if s, ok := raw.(string); ok {
				scratch = strings.TrimSpace(s)
			}
			if !Truthy(scratch) {
				return nil, form.NewValidationError(msg)
			}
			return next(raw)
		}
	}
}

// Trim removes surrounding whitespace from string values before calling
// through.  Unlike Required, the trimmed string is what next receives.
func Trim() Decorator {
	return func(next form.ValidateFunc) form.ValidateFunc {
		return func(raw any) (any, error) {
			if s, ok := raw.(string); ok {
				raw = strings.TrimSpace(s)
			}
			return next(raw)
		}
	}
}

// Boolean coerces the value to its truthiness before calling through.
func Boolean() Decorator {
	return func(next form.ValidateFunc) form.ValidateFunc {
		return func(raw any) (any, error) { return next(Truthy(raw)) }
	}
}

// Tag checks the value against a go-playground/validator tag such as
// "email" or "min=3,max=16".
func Tag(tag string, msg any) Decorator {
	return func(next form.ValidateFunc) form.ValidateFunc {
		return func(raw any) (any, error) {
			if raw == nil {
				return nil, form.NewValidationError(msg)
			}
			if err := tagValidator().Var(raw, tag); err != nil {
				return nil, &form.ValidationError{Message: msg, Err: err}
			}
			return next(raw)
		}
	}
}

// Sanitize strips all markup from string values before calling through.
// Non-string values pass unchanged.
func Sanitize() Decorator {
	return func(next form.ValidateFunc) form.ValidateFunc {
		return func(raw any) (any, error) {
			if s, ok := raw.(string); ok {
				raw = strictPolicy().Sanitize(s)
			}
			return next(raw)
		}
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

var (
	validateOnce sync.Once
	validate     *validator.Validate

	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func tagValidator() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New() })
	return validate
}

func strictPolicy() *bluemonday.Policy {
	policyOnce.Do(func() { policy = bluemonday.StrictPolicy() })
	return policy
}

// Truthy reports the truthiness of v: nil, false, zero numbers, and empty
// strings, slices, and maps are false.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String:
		if n, ok := v.(interface{ Float64() (float64, error) }); ok {
			f, err := n.Float64()
			return err != nil || f != 0
		}
		return rv.Len() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// toInt converts integers, integral floats, numeric strings (surrounding
// whitespace allowed), and booleans.  Floats are truncated toward zero.
func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case interface{ Int64() (int64, error) }:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		if f, ok := x.(interface{ Float64() (float64, error) }); ok {
			if n, err := f.Float64(); err == nil {
				return truncate(n)
			}
		}
		return 0, false
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return n, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt {
			return 0, false
		}
		return int(u), true
	case reflect.Float32, reflect.Float64:
		return truncate(rv.Float())
	}
	return 0, false
}

// truncate rejects floats outside int.  -MinInt is the exact power of two
// one past MaxInt; float64(math.MaxInt) would round up to it.
func truncate(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= -float64(math.MinInt) || f < float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}
