// internal/form/group.go
//
// formscribe – Forms engine: regex addressing and group instances.
//
// Context
//   A regex field matches every source key satisfying its pattern.  The
//   captured tokens of a match identify one group instance, e.g. the "foo"
//   in "item-foo-amount".  Sibling fields sharing a RegexGroup write into
//   the same instance when their matches capture the same tokens.
//
//   Each matched value is validated in isolation.  A failure records the
//   error and leaves that key out of that instance only; the instance
//   itself survives, as do its siblings.  Instances are listed in the order
//   their tokens were first seen.
//
//------------------------------------------------------------------------------

package form

import "strings"

// groupSet collects the instances of one regex group.
type groupSet struct {
	order   []string
	byTuple map[string]*GroupInstance
}

// group returns (creating on demand) the set for name.
func (f *Form) group(name string) *groupSet {
	g, ok := f.groups[name]
	if !ok {
		g = &groupSet{byTuple: make(map[string]*GroupInstance)}
		f.groups[name] = g
	}
	return g
}

// instance returns (creating on demand) the instance for captured tokens.
func (g *groupSet) instance(matches []string) *GroupInstance {
	tuple := strings.Join(matches, "\x00")
	if gi, ok := g.byTuple[tuple]; ok {
		return gi
	}
	gi := &GroupInstance{
		Matches: append([]string(nil), matches...),
		Values:  make(map[string]any),
	}
	g.byTuple[tuple] = gi
	g.order = append(g.order, tuple)
	return gi
}

// validateGroup validates every source key matched by d.
func (f *Form) validateGroup(d *Descriptor, st *fieldState) error {
	g := f.group(d.RegexGroup)

	var first error
	for _, key := range f.src.Keys() {
		m := d.re.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		gi := g.instance(m[1:])

		raw, _ := f.src.Get(key)
		value, err := st.inst.Validate(raw)
		if err != nil {
			ve, ok := asValidation(d.ID, err)
			if !ok {
				continue
			}
			f.errors = append(f.errors, ve)
			if first == nil {
				first = ve
			}
			continue
		}
		gi.Values[d.RegexGroupKey] = value
		st.matched = append(st.matched, value)
	}

	if first != nil {
		f.finish(d, st, Invalid, nil)
		return first
	}
	f.finish(d, st, Valid, nil)
	return nil
}

// groupList materialises the instances of name.  Never nil.
func (f *Form) groupList(name string) []GroupInstance {
	g, ok := f.groups[name]
	if !ok {
		return []GroupInstance{}
	}
	out := make([]GroupInstance, 0, len(g.order))
	for _, tuple := range g.order {
		out = append(out, g.byTuple[tuple].clone())
	}
	return out
}

// buildValues assembles the keyword mapping.
func (f *Form) buildValues() Values {
	kw := make(Values, len(f.def.fields))
	for _, name := range f.def.groups {
		kw[name] = f.groupList(name)
	}
	for _, d := range f.def.fields {
		if d.IsRegex() {
			continue
		}
		var v any
		if st, ok := f.states[d.ID]; ok && st.status == Valid {
			v = st.value
		}
		kw[d.ID] = v
	}
	return kw
}
