// internal/form/form.go
//
// formscribe – Forms engine: one validation and submission pass.
//
// Context
//   A Form owns a single pass over one raw-data Source.  New runs the whole
//   pass synchronously: every discovered field is validated (dependencies
//   first), the keyword mapping is built, the whole-form Validate hook runs,
//   and, only when no error has been recorded, each field and then the whole
//   form is submitted.  Afterwards the Form is inert and only inspected.
//
// Workflow
//   •  Extra context (a DB handle, a session, request metadata) is injected
//      with WithValue and read back by hooks through Form.Value.
//   •  Errors() lists ValidationError and SubmitError values in insertion
//      order.  Empty means the pass fully succeeded.
//   •  The only error New itself returns is structural: a nil or malformed
//      definition.
//
//------------------------------------------------------------------------------

package form

import (
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/formscribe/internal/metrics"
)

// DefaultMaxDepth bounds dependency recursion.
const DefaultMaxDepth = 64

// Source is the raw key-value input.  Keys must be deterministic; the
// engine never mutates a Source.
type Source interface {
	Get(key string) (any, bool)
	Keys() []string
}

type emptySource struct{}

func (emptySource) Get(string) (any, bool) { return nil, false }
func (emptySource) Keys() []string         { return nil }

// Option configures a Form before its pass runs.
type Option func(*Form)

// WithValue injects a named collaborator readable through Form.Value.
func WithValue(name string, v any) Option {
	return func(f *Form) { f.ctx[name] = v }
}

// WithValues injects every entry of m.
func WithValues(m map[string]any) Option {
	return func(f *Form) {
		for k, v := range m {
			f.ctx[k] = v
		}
	}
}

// WithLogger sets the logger used for pass diagnostics.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(f *Form) {
		if l != nil {
			f.log = l
		}
	}
}

// WithMaxDepth bounds dependency recursion.  n < 1 keeps the default.
func WithMaxDepth(n int) Option {
	return func(f *Form) {
		if n > 0 {
			f.maxDepth = n
		}
	}
}

// Outcome is the terminal result of one field.
type Outcome struct {
	Status Status
	Value  any
}

// fieldState is the mutable per-field record of one pass.
type fieldState struct {
	status  Status
	value   any
	inst    Field
	matched []any // regex fields: validated values in match order
}

// Form is the result of one pass.  It is not safe for concurrent use.
type Form struct {
	def      *Definition
	src      Source
	ctx      map[string]any
	log      *zap.SugaredLogger
	maxDepth int

	states    map[string]*fieldState
	groups    map[string]*groupSet
	errors    []error
	values    Values
	submitted bool
}

// New runs the full pass of def over src and returns the inspected result.
func New(def *Definition, src Source, opts ...Option) (*Form, error) {
	if err := def.check(); err != nil {
		return nil, err
	}
	if src == nil {
		src = emptySource{}
	}

	f := &Form{
		def:      def,
		src:      src,
		ctx:      make(map[string]any),
		log:      zap.S(),
		maxDepth: DefaultMaxDepth,
		states:   make(map[string]*fieldState, len(def.fields)),
		groups:   make(map[string]*groupSet, len(def.groups)),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.run()
	return f, nil
}

// run drives validation, the whole-form hooks, and submission.
func (f *Form) run() {
	start := time.Now()

	for _, d := range f.def.fields {
		_ = f.validateField(d, 0) // failures are already recorded
	}

	f.values = f.buildValues()

	if h := f.def.hooks.Validate; h != nil {
		if err := h(f, f.values.clone()); err != nil {
			if ve, ok := asValidation("", err); ok {
				f.errors = append(f.errors, ve)
			}
		}
	}

	if len(f.errors) == 0 {
		f.submit()
	}

	f.observe(time.Since(start))
}

// observe records pass metrics and a summary log line.
func (f *Form) observe(elapsed time.Duration) {
	name := f.def.name
	outcome := "ok"
	if len(f.errors) > 0 {
		outcome = "error"
	}
	metrics.FormsProcessedTotal.WithLabelValues(name, outcome).Inc()
	metrics.FormDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	for _, st := range f.states {
		metrics.FieldOutcomesTotal.WithLabelValues(name, st.status.String()).Inc()
	}
	for _, err := range f.errors {
		kind := "validation"
		if IsSubmitError(err) {
			kind = "submit"
		}
		metrics.FormErrorsTotal.WithLabelValues(name, kind).Inc()
	}

	f.log.Debugw("form processed",
		"form", name,
		"fields", len(f.def.fields),
		"errors", len(f.errors),
		"submitted", f.submitted,
		"elapsed", elapsed,
	)
}

/*──────────────────────────── accessors ───────────────────────────────────*/

// Definition returns the definition this pass ran against.
func (f *Form) Definition() *Definition { return f.def }

// Errors returns the accumulated errors in insertion order.
func (f *Form) Errors() []error {
	out := make([]error, len(f.errors))
	copy(out, f.errors)
	return out
}

// Valid reports whether the pass recorded no error.
func (f *Form) Valid() bool { return len(f.errors) == 0 }

// Submitted reports whether the submission phase ran.
func (f *Form) Submitted() bool { return f.submitted }

// Value returns an injected collaborator, nil when absent.
func (f *Form) Value(name string) any { return f.ctx[name] }

// Lookup returns an injected collaborator and whether it was set.
func (f *Form) Lookup(name string) (any, bool) {
	v, ok := f.ctx[name]
	return v, ok
}

// Status returns the state of the field with identity id.
func (f *Form) Status(id string) Status {
	if st, ok := f.states[id]; ok {
		return st.status
	}
	return Unvisited
}

// Outcome returns the terminal result of the field with identity id.
func (f *Form) Outcome(id string) (Outcome, bool) {
	st, ok := f.states[id]
	if !ok {
		return Outcome{}, false
	}
	return Outcome{Status: st.status, Value: st.value}, true
}

// Validated returns every field's outcome keyed by identity.
func (f *Form) Validated() map[string]Outcome {
	out := make(map[string]Outcome, len(f.states))
	for id, st := range f.states {
		out[id] = Outcome{Status: st.status, Value: st.value}
	}
	return out
}

// Values returns a copy of the keyword mapping.
func (f *Form) Values() Values { return f.values.clone() }

// Group returns the instances of the regex group name.
func (f *Form) Group(name string) []GroupInstance { return f.groupList(name) }
