// internal/form/submit.go
//
// formscribe – Forms engine: submission phase.
//
// Context
//   Submission runs only when validation left no error behind.  Fields are
//   submitted in discovery order, which is independent of the dependency
//   graph.  Skipped, invalid, and nil-valued fields are never submitted.
//   Regex fields submit every value they validated, one call per match.
//   A failing submit is recorded and the phase continues; nothing already
//   submitted is rolled back.  The whole-form Submit hook runs last.
//
//------------------------------------------------------------------------------

package form

// submit runs the submission phase.
func (f *Form) submit() {
	for _, d := range f.def.fields {
		st, ok := f.states[d.ID]
		if !ok || st.status != Valid {
			continue
		}
		if d.IsRegex() {
			for _, v := range st.matched {
				if v != nil {
					f.submitValue(d, st.inst, v)
				}
			}
			continue
		}
		if st.value != nil {
			f.submitValue(d, st.inst, st.value)
		}
	}

	if h := f.def.hooks.Submit; h != nil {
		if err := h(f, f.values.clone()); err != nil {
			if se, ok := asSubmit("", err); ok {
				f.errors = append(f.errors, se)
			}
		}
	}
	f.submitted = true
}

// submitValue submits one value and records a failure.
func (f *Form) submitValue(d *Descriptor, inst Field, v any) {
	err := inst.Submit(v)
	if err == nil {
		return
	}
	if se, ok := asSubmit(d.ID, err); ok {
		f.log.Debugw("field submit failed", "form", f.def.name, "field", d.ID, "err", se)
		f.errors = append(f.errors, se)
	}
}
