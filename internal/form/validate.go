// internal/form/validate.go
//
// formscribe – Forms engine: the validation state machine.
//
// Context
//   Each field moves Unvisited → InProgress → {Valid, Invalid, Skipped}.
//   validateField satisfies a field's dependencies before the field itself
//   and memoises every result, so a field is attempted at most once per pass.
//
// Rules
//   •  A dependency that is still InProgress when its dependent checks it is
//      part of a cycle.  The dependent fails open: it is Skipped.
//   •  A dependency left Unvisited because the depth limit was hit is treated
//      the same way.  The top-level loop visits it later at depth zero.
//   •  WhenValidated only needs the dependency to have been attempted.  A
//      dependency that failed, was skipped, or had no input still counts.
//   •  WhenValue needs the dependency to be Valid with an equal value.
//      Anything else is a silent skip, never an error.
//   •  ErrNotImplemented from Validate means no value and no error.
//
//------------------------------------------------------------------------------

package form

import "reflect"

// Status is the validation state of one field.
type Status int

const (
	Unvisited Status = iota
	InProgress
	Valid
	Invalid
	Skipped
)

var statusNames = [...]string{"unvisited", "in_progress", "valid", "invalid", "skipped"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool { return s >= Valid }

// state returns (creating on demand) the record for d.
func (f *Form) state(d *Descriptor) *fieldState {
	st, ok := f.states[d.ID]
	if !ok {
		st = &fieldState{}
		f.states[d.ID] = st
	}
	return st
}

// validateField runs the state machine for d.  The returned error is the
// field's own *ValidationError, already recorded on the form; callers only
// use it to observe the failure.
func (f *Form) validateField(d *Descriptor, depth int) error {
	st := f.state(d)
	if st.status != Unvisited {
		return nil
	}
	if depth > f.maxDepth {
		f.log.Warnw("dependency depth limit reached",
			"form", f.def.name, "field", d.ID, "depth", depth)
		return nil
	}
	st.status = InProgress

	for _, dep := range f.def.deps[d.ID] {
		ds := f.state(dep)
		if ds.status == Unvisited {
			_ = f.validateField(dep, depth+1) // recorded by dep itself
		}

		if !ds.status.Terminal() {
			f.log.Debugw("dependency unresolved, skipping field",
				"form", f.def.name, "field", d.ID, "dependency", dep.ID,
				"status", ds.status.String())
			f.finish(d, st, Skipped, nil)
			return nil
		}

		if want, gated := d.WhenValue[dep.Key]; gated {
			if ds.status != Valid || !reflect.DeepEqual(ds.value, want) {
				f.log.Debugw("value gate closed",
					"form", f.def.name, "field", d.ID, "dependency", dep.ID)
				f.finish(d, st, Skipped, nil)
				return nil
			}
		}
	}

	inst := d.instance()
	st.inst = inst
	if !d.active(inst) {
		f.finish(d, st, Skipped, nil)
		return nil
	}

	if d.IsRegex() {
		return f.validateGroup(d, st)
	}

	raw, _ := f.src.Get(d.Key)
	value, err := inst.Validate(raw)
	if err != nil {
		ve, ok := asValidation(d.ID, err)
		if !ok {
			f.finish(d, st, Skipped, nil)
			return nil
		}
		f.errors = append(f.errors, ve)
		f.finish(d, st, Invalid, nil)
		return ve
	}

	f.finish(d, st, Valid, value)
	return nil
}

// finish moves d into a terminal state.
func (f *Form) finish(d *Descriptor, st *fieldState, s Status, value any) {
	st.status = s
	st.value = value
	f.log.Debugw("field resolved",
		"form", f.def.name, "field", d.ID, "status", s.String())
}
