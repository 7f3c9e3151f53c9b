// internal/form/registry.go
//
// formscribe – Forms engine: YAML declarations and the definition registry.
//
// Context
//   Field metadata (addressing, dependencies, constant activation) may live
//   in a YAML file instead of Go code.  Behaviour cannot, so a YAML form is
//   paired with Bindings that attach Validate/Submit/Enabled hooks to field
//   identities.  The two halves meet in ParseDefinition.
//
//   The Registry maps form names to Definitions.  component.Install adds
//   Go-declared forms and bindings at boot; YAML forms are loaded lazily
//   on first Get from the configured directories, with concurrent first
//   requests for the same name collapsed by singleflight.
//
// Workflow
//   •  LoadDefinition reads "<dir>/<name>.yaml" and validates structure.
//   •  Registry.Bind records the Go half for a YAML form name.
//   •  Registry.Get returns a registered definition or loads it, searching
//      directories in precedence order (earlier directories win).
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/yanizio/formscribe/internal/metrics"
)

// -----------------------------------------------------------------------------
// YAML schema
// -----------------------------------------------------------------------------

// FileDef mirrors one YAML form file.
type FileDef struct {
	Name   string      `yaml:"name"`
	Fields []FileField `yaml:"fields"`
}

// FileField mirrors one YAML field entry.
type FileField struct {
	ID            string         `yaml:"id"`
	Key           string         `yaml:"key"`
	RegexKey      string         `yaml:"regex_key"`
	RegexGroup    string         `yaml:"regex_group"`
	RegexGroupKey string         `yaml:"regex_group_key"`
	WhenValidated []string       `yaml:"when_validated"`
	WhenValue     map[string]any `yaml:"when_value"`
	Enabled       *bool          `yaml:"enabled"` // constant activation, optional
}

// Binding is the Go behaviour attached to one YAML field.
type Binding struct {
	New      func() Field
	Validate ValidateFunc
	Submit   SubmitFunc
	Enabled  func() bool // overrides a YAML constant
}

// Bindings attaches behaviour to a whole YAML form.
type Bindings struct {
	Fields map[string]Binding
	Hooks  Hooks
}

// ParseDefinition builds a Definition from YAML bytes and b.  A binding for
// an identity the YAML does not declare is an error, so typos surface early.
func ParseDefinition(raw []byte, b Bindings) (*Definition, error) {
	var fd FileDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse form YAML: %w", err)
	}
	if fd.Name == "" {
		return nil, errors.New("form YAML: missing required 'name'")
	}

	declared := make(map[string]bool, len(fd.Fields))
	descs := make([]*Descriptor, 0, len(fd.Fields))
	for _, ff := range fd.Fields {
		d := &Descriptor{
			ID:            ff.ID,
			Key:           ff.Key,
			RegexKey:      ff.RegexKey,
			RegexGroup:    ff.RegexGroup,
			RegexGroupKey: ff.RegexGroupKey,
			WhenValidated: ff.WhenValidated,
			WhenValue:     ff.WhenValue,
		}
		if ff.Enabled != nil {
			d.Enabled = Always(*ff.Enabled)
		}
		if bind, ok := b.Fields[ff.ID]; ok {
			d.New = bind.New
			d.Validate = bind.Validate
			d.Submit = bind.Submit
			if bind.Enabled != nil {
				d.Enabled = bind.Enabled
			}
		}
		declared[ff.ID] = true
		descs = append(descs, d)
	}

	for id := range b.Fields {
		if !declared[id] {
			return nil, fmt.Errorf("form %s: binding for undeclared field %q", fd.Name, id)
		}
	}

	def, err := NewDefinition(fd.Name, b.Hooks, descs...)
	if err != nil {
		return nil, fmt.Errorf("form %s: %w", fd.Name, err)
	}
	return def, nil
}

// LoadDefinition reads and parses one YAML file.
func LoadDefinition(path string, b Bindings) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	def, err := ParseDefinition(raw, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// ErrUnknownForm is returned by Registry.Get for an unknown name.
var ErrUnknownForm = errors.New("form: unknown form")

// Registry maps names to Definitions.  Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]*Definition
	bindings map[string]Bindings
	dirs     []string
	sfg      singleflight.Group
}

// NewRegistry returns a Registry that loads YAML forms from dirs, ordered
// by precedence.
func NewRegistry(dirs ...string) *Registry {
	return &Registry{
		defs:     make(map[string]*Definition),
		bindings: make(map[string]Bindings),
		dirs:     append([]string(nil), dirs...),
	}
}

// Default is the process-wide registry served by cmd/formscribe.
var Default = NewRegistry()

// SetDirs replaces the YAML search directories.  Already loaded forms stay.
func (r *Registry) SetDirs(dirs ...string) {
	r.mu.Lock()
	r.dirs = append([]string(nil), dirs...)
	r.mu.Unlock()
}

// Register inserts or overrides def.
func (r *Registry) Register(def *Definition) {
	r.mu.Lock()
	r.defs[def.name] = def
	r.mu.Unlock()
}

// Bind records the Go behaviour of the YAML form name.
func (r *Registry) Bind(name string, b Bindings) {
	r.mu.Lock()
	r.bindings[name] = b
	r.mu.Unlock()
}

// Names returns every registered or bound name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs)+len(r.bindings))
	for n := range r.defs {
		out = append(out, n)
	}
	for n := range r.bindings {
		if _, ok := r.defs[n]; !ok {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Get returns the definition called name, loading it from YAML on demand.
func (r *Registry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if ok {
		return def, nil
	}

	v, err, _ := r.sfg.Do(name, func() (any, error) {
		r.mu.RLock()
		def, ok := r.defs[name]
		b, bound := r.bindings[name]
		dirs := r.dirs
		r.mu.RUnlock()
		if ok {
			return def, nil
		}
		if !bound || !validName(name) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownForm, name)
		}

		def, err := r.load(dirs, name, b)
		if err != nil {
			metrics.DefinitionLoadErrorsTotal.Inc()
			zap.S().Errorw("form definition load failed", "form", name, "err", err)
			return nil, err
		}
		r.Register(def)
		metrics.DefinitionLoadTotal.Inc()
		zap.S().Infow("form definition loaded", "form", name, "fields", len(def.fields))
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Definition), nil
}

// load searches dirs for "<name>.yaml".
func (r *Registry) load(dirs []string, name string, b Bindings) (*Definition, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, filepath.FromSlash(name)+".yaml")
		def, err := LoadDefinition(path, b)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if def.name != name {
			return nil, fmt.Errorf("%s: declares form %q, want %q", path, def.name, name)
		}
		return def, nil
	}
	return nil, fmt.Errorf("%w: %s (no YAML found)", ErrUnknownForm, name)
}

// validName rejects names that could escape the form directories.
func validName(name string) bool {
	return name != "" && filepath.IsLocal(filepath.FromSlash(name))
}
