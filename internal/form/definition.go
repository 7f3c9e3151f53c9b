// internal/form/definition.go
//
// formscribe – Forms engine: form definitions, discovery, and dependencies.
//
// Context
//   A Definition is the immutable registry of field descriptors plus the two
//   whole-form hooks.  It is built once, at program start or when a YAML file
//   is loaded, and shared read-only by every Form that runs against it.
//
// Workflow
//   •  NewDefinition copies and validates every Descriptor, compiles regex
//      keys, and rejects duplicate identities.  Within one regex group every
//      field needs its own regex_group_key, and "matches" is reserved.
//   •  Fields returns the discovery order.  The rule is lexical by ID; the
//      order the author declared fields in is NOT preserved.
//   •  DependenciesOf resolves WhenValidated and WhenValue against the Key of
//      key-addressed fields.  Regex fields never act as dependency targets.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"sort"
)

// HookFunc is a whole-form Validate or Submit hook.  kw is the keyword
// mapping built from every field's outcome; f exposes injected context.
type HookFunc func(f *Form, kw Values) error

// Hooks holds the optional whole-form hooks.  A nil hook is not implemented.
type Hooks struct {
	Validate HookFunc
	Submit   HookFunc
}

// Definition is a validated, immutable form declaration.
type Definition struct {
	name   string
	hooks  Hooks
	fields []*Descriptor          // discovery order
	byID   map[string]*Descriptor // identity → descriptor
	deps   map[string][]*Descriptor
	groups []string // regex group names, first-seen in discovery order
}

// NewDefinition builds a Definition.  Any malformed descriptor aborts with
// *InvalidFieldError.
func NewDefinition(name string, hooks Hooks, fields ...*Descriptor) (*Definition, error) {
	def := &Definition{
		name:  name,
		hooks: hooks,
		byID:  make(map[string]*Descriptor, len(fields)),
		deps:  make(map[string][]*Descriptor, len(fields)),
	}

	for _, src := range fields {
		if src == nil {
			return nil, &InvalidFieldError{Reason: "nil descriptor"}
		}
		if src.ID == "" {
			return nil, &InvalidFieldError{Field: src.Key, Reason: "missing identity"}
		}
		if _, dup := def.byID[src.ID]; dup {
			return nil, &InvalidFieldError{Field: src.ID, Reason: "duplicate identity"}
		}
		d := src.clone()
		if err := d.prepare(); err != nil {
			return nil, err
		}
		def.byID[d.ID] = d
		def.fields = append(def.fields, d)
	}

	sort.SliceStable(def.fields, func(i, j int) bool {
		return def.fields[i].ID < def.fields[j].ID
	})

	groupKeys := make(map[string]map[string]string) // group → group key → ID
	for _, d := range def.fields {
		if !d.IsRegex() {
			continue
		}
		if d.RegexGroupKey == matchesKey {
			return nil, &InvalidFieldError{
				Field:  d.ID,
				Reason: fmt.Sprintf("regex_group_key %q is reserved", matchesKey),
			}
		}
		keys, seen := groupKeys[d.RegexGroup]
		if !seen {
			keys = make(map[string]string)
			groupKeys[d.RegexGroup] = keys
			def.groups = append(def.groups, d.RegexGroup)
		}
		if other, dup := keys[d.RegexGroupKey]; dup {
			return nil, &InvalidFieldError{
				Field:  d.ID,
				Reason: fmt.Sprintf("regex_group_key %q already used by %s in group %q",
					d.RegexGroupKey, other, d.RegexGroup),
			}
		}
		keys[d.RegexGroupKey] = d.ID
	}

	for _, g := range def.groups {
		if other, clash := def.byID[g]; clash && !other.IsRegex() {
			return nil, &InvalidFieldError{
				Field:  other.ID,
				Reason: fmt.Sprintf("identity collides with regex group %q", g),
			}
		}
	}

	for _, d := range def.fields {
		def.deps[d.ID] = def.resolve(d)
	}
	return def, nil
}

// MustDefinition is NewDefinition that panics on error.  Intended for
// package-level form declarations registered from init().
func MustDefinition(name string, hooks Hooks, fields ...*Descriptor) *Definition {
	def, err := NewDefinition(name, hooks, fields...)
	if err != nil {
		panic(err)
	}
	return def
}

// Name returns the definition name.
func (def *Definition) Name() string { return def.name }

// Fields returns the descriptors in discovery order.  The slice is a copy.
func (def *Definition) Fields() []*Descriptor {
	out := make([]*Descriptor, len(def.fields))
	copy(out, def.fields)
	return out
}

// Field returns the descriptor with identity id.
func (def *Definition) Field(id string) (*Descriptor, bool) {
	d, ok := def.byID[id]
	return d, ok
}

// Groups returns the regex group names in first-seen discovery order.
func (def *Definition) Groups() []string {
	out := make([]string, len(def.groups))
	copy(out, def.groups)
	return out
}

// DependenciesOf returns the direct dependencies of d in discovery order.
// Unknown dependency keys contribute nothing.
func (def *Definition) DependenciesOf(d *Descriptor) []*Descriptor {
	if d == nil {
		return nil
	}
	if deps, ok := def.deps[d.ID]; ok {
		out := make([]*Descriptor, len(deps))
		copy(out, deps)
		return out
	}
	return def.resolve(d)
}

// resolve computes the dependency set of d.
func (def *Definition) resolve(d *Descriptor) []*Descriptor {
	wanted := make(map[string]bool, len(d.WhenValidated)+len(d.WhenValue))
	for _, k := range d.WhenValidated {
		wanted[k] = true
	}
	for k := range d.WhenValue {
		wanted[k] = true
	}
	if len(wanted) == 0 {
		return nil
	}

	var out []*Descriptor
	for _, cand := range def.fields {
		if cand.IsRegex() || !wanted[cand.Key] {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// check guards against a nil Definition or one assembled by hand.  The zero
// value is a valid, empty form.
func (def *Definition) check() error {
	if def == nil {
		return errors.New("form: nil definition")
	}
	for _, d := range def.fields {
		if d.IsRegex() && d.re == nil {
			return &InvalidFieldError{Field: d.ID, Reason: "regex not compiled"}
		}
	}
	return nil
}
