package server

import (
	"errors"

	"github.com/yanizio/formscribe/internal/form"
)

// fieldError is the wire form of one recorded error.  Field is empty for
// whole-form errors.
type fieldError struct {
	Field   string `json:"field,omitempty"`
	Kind    string `json:"kind"`
	Message any    `json:"message"`
}

type result struct {
	Form      string       `json:"form"`
	Valid     bool         `json:"valid"`
	Submitted bool         `json:"submitted"`
	Errors    []fieldError `json:"errors"`
	Values    form.Values  `json:"values"`
}

func newResult(f *form.Form) result {
	errs := f.Errors()
	res := result{
		Form:      f.Definition().Name(),
		Valid:     f.Valid(),
		Submitted: f.Submitted(),
		Errors:    make([]fieldError, 0, len(errs)),
		Values:    f.Values(),
	}
	for _, err := range errs {
		res.Errors = append(res.Errors, toFieldError(err))
	}
	return res
}

func toFieldError(err error) fieldError {
	var ve *form.ValidationError
	if errors.As(err, &ve) {
		return fieldError{Field: ve.Field, Kind: "validation", Message: ve.Message}
	}
	var se *form.SubmitError
	if errors.As(err, &se) {
		return fieldError{Field: se.Field, Kind: "submit", Message: se.Message}
	}
	return fieldError{Kind: "internal", Message: err.Error()}
}
