// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  At boot the server calls
// Install, which copies every component's forms into the form registry,
// and then mounts the routes of components that implement Router.

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/formscribe/internal/form"
)

// Component contract.
//
// Forms returns the Go-declared definitions the component owns.  Bindings
// returns the Go halves of YAML-declared forms, keyed by form name.  Either
// may be nil.
type Component interface {
	Name() string
	Forms() []*form.Definition
	Bindings() map[string]form.Bindings
}

// Router is optional.  Its routes are mounted under /components/<name>.
type Router interface {
	Routes() chi.Router
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component ordered by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Install registers the forms and bindings of cs into reg.
func Install(reg *form.Registry, cs ...Component) {
	for _, c := range cs {
		for _, def := range c.Forms() {
			reg.Register(def)
		}
		for name, b := range c.Bindings() {
			reg.Bind(name, b)
		}
	}
}
