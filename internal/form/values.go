// internal/form/values.go
//
// formscribe – Forms engine: keyword mapping and group instances.
//
//------------------------------------------------------------------------------

package form

import "github.com/goccy/go-json"

// Values is the keyword mapping handed to whole-form hooks.  Key-addressed
// fields appear under their identity with the validated value, or nil when
// the field was skipped or invalid.  Regex groups appear under the group name
// as a []GroupInstance, never nil.
type Values map[string]any

// Get returns the value stored under name, nil when absent.
func (v Values) Get(name string) any { return v[name] }

// String returns the value under name when it is a string.
func (v Values) String(name string) (string, bool) {
	s, ok := v[name].(string)
	return s, ok
}

// Group returns the instances of the regex group name.
func (v Values) Group(name string) []GroupInstance {
	g, _ := v[name].([]GroupInstance)
	return g
}

// matchesKey holds the captured tokens in GroupInstance.Map.  No field may
// use it as its regex_group_key.
const matchesKey = "matches"

// GroupInstance is one repeated sub-entity matched by regex fields: every
// sibling field whose pattern captured the same tokens contributes to it.
type GroupInstance struct {
	Matches []string       // captured tokens identifying the instance
	Values  map[string]any // regex_group_key → validated value
}

// Get returns the value stored under key.
func (g GroupInstance) Get(key string) (any, bool) {
	v, ok := g.Values[key]
	return v, ok
}

// Map flattens the instance into one mapping with a "matches" entry.
func (g GroupInstance) Map() map[string]any {
	out := make(map[string]any, len(g.Values)+1)
	for k, v := range g.Values {
		out[k] = v
	}
	out[matchesKey] = append([]string(nil), g.Matches...)
	return out
}

// MarshalJSON encodes the instance in its Map form.
func (g GroupInstance) MarshalJSON() ([]byte, error) { return json.Marshal(g.Map()) }

// clone returns a copy safe to hand to callers.
func (g *GroupInstance) clone() GroupInstance {
	c := GroupInstance{
		Matches: append([]string(nil), g.Matches...),
		Values:  make(map[string]any, len(g.Values)),
	}
	for k, v := range g.Values {
		c.Values[k] = v
	}
	return c
}

// clone copies v deeply enough that a hook editing its mapping, or the
// group instances inside it, leaves the form's own record untouched.
func (v Values) clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		if g, ok := val.([]GroupInstance); ok {
			cg := make([]GroupInstance, len(g))
			for i := range g {
				cg[i] = g[i].clone()
			}
			val = cg
		}
		out[k] = val
	}
	return out
}
