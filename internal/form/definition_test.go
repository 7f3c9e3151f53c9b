package form_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/formscribe/internal/form"
	"github.com/yanizio/formscribe/internal/source"
)

func ids(ds []*form.Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ID)
	}
	return out
}

func TestDiscoveryIsLexical(t *testing.T) {
	def := form.MustDefinition("order", form.Hooks{},
		&form.Descriptor{ID: "zeta", Key: "z"},
		&form.Descriptor{ID: "alpha", Key: "a"},
		&form.Descriptor{ID: "mid", RegexKey: `m-(\d+)`, RegexGroup: "ms", RegexGroupKey: "v"},
	)
	if diff := cmp.Diff([]string{"alpha", "mid", "zeta"}, ids(def.Fields())); diff != "" {
		t.Fatalf("discovery order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ms"}, def.Groups()); diff != "" {
		t.Fatalf("groups (-want +got):\n%s", diff)
	}
}

func TestDependenciesOf(t *testing.T) {
	target := &form.Descriptor{ID: "x", Key: "shared", WhenValidated: []string{"b_key", "missing", "rx"},
		WhenValue: map[string]any{"a_key": 1}}
	def := form.MustDefinition("deps", form.Hooks{},
		&form.Descriptor{ID: "a", Key: "a_key"},
		&form.Descriptor{ID: "b", Key: "b_key"},
		&form.Descriptor{ID: "r", RegexKey: "rx", RegexGroup: "g", RegexGroupKey: "k"},
		target,
	)
	x, _ := def.Field("x")

	// Unknown keys and regex fields contribute nothing.
	if diff := cmp.Diff([]string{"a", "b"}, ids(def.DependenciesOf(x))); diff != "" {
		t.Fatalf("dependencies (-want +got):\n%s", diff)
	}
	a, _ := def.Field("a")
	if deps := def.DependenciesOf(a); len(deps) != 0 {
		t.Fatalf("a should have no dependencies: %v", ids(deps))
	}
}

func TestDefinitionCopiesDescriptors(t *testing.T) {
	d := &form.Descriptor{ID: "x", Key: "x", WhenValidated: []string{"y"}}
	def := form.MustDefinition("copy", form.Hooks{}, d, &form.Descriptor{ID: "y", Key: "y"})
	d.Key = "changed"
	d.WhenValidated[0] = "changed"

	got, _ := def.Field("x")
	if got.Key != "x" || got.WhenValidated[0] != "y" {
		t.Fatalf("definition shares descriptor state: %+v", got)
	}
}

func TestNewDefinitionRejects(t *testing.T) {
	cases := map[string][]*form.Descriptor{
		"no addressing":      {{ID: "x"}},
		"both modes":         {{ID: "x", Key: "x", RegexKey: "x", RegexGroup: "g", RegexGroupKey: "k"}},
		"partial regex":      {{ID: "x", RegexKey: "x", RegexGroup: "g"}},
		"bad regex":          {{ID: "x", RegexKey: "(", RegexGroup: "g", RegexGroupKey: "k"}},
		"missing id":         {{Key: "x"}},
		"duplicate id":       {{ID: "x", Key: "a"}, {ID: "x", Key: "b"}},
		"nil descriptor":     {nil},
		"group collision":    {{ID: "g", Key: "g"}, {ID: "r", RegexKey: "r", RegexGroup: "g", RegexGroupKey: "k"}},
		"reserved group key": {{ID: "r", RegexKey: `row-(\w+)-m`, RegexGroup: "row", RegexGroupKey: "matches"}},
		"shared group key": {
			{ID: "r1", RegexKey: `row-(\w+)-a`, RegexGroup: "row", RegexGroupKey: "v"},
			{ID: "r2", RegexKey: `row-(\w+)-b`, RegexGroup: "row", RegexGroupKey: "v"},
		},
	}
	for name, fields := range cases {
		_, err := form.NewDefinition("bad", form.Hooks{}, fields...)
		var ife *form.InvalidFieldError
		if !errors.As(err, &ife) {
			t.Fatalf("%s: want InvalidFieldError, got %v", name, err)
		}
	}
}

func TestGroupKeyReusableAcrossGroups(t *testing.T) {
	_, err := form.NewDefinition("two", form.Hooks{},
		&form.Descriptor{ID: "a", RegexKey: `a-(\w+)`, RegexGroup: "as", RegexGroupKey: "v"},
		&form.Descriptor{ID: "b", RegexKey: `b-(\w+)`, RegexGroup: "bs", RegexGroupKey: "v"},
	)
	if err != nil {
		t.Fatalf("same key in different groups rejected: %v", err)
	}
}

func TestRegexIsAnchored(t *testing.T) {
	d := &form.Descriptor{ID: "r", RegexKey: `item-(\w+)`, RegexGroup: "g", RegexGroupKey: "k"}
	def := form.MustDefinition("anchor", form.Hooks{}, d)
	r, _ := def.Field("r")
	if r.Pattern().MatchString("xitem-a") || r.Pattern().MatchString("item-a-b-") {
		t.Fatalf("pattern %s is not anchored", r.Pattern())
	}
	if !r.Pattern().MatchString("item-a") {
		t.Fatalf("pattern %s rejects a full match", r.Pattern())
	}
}

/*──────────────────────────── YAML ────────────────────────────────────────*/

const greetYAML = `
name: greet
fields:
  - id: name
    key: name
  - id: shout
    key: shout
    when_validated: [name]
  - id: hidden
    key: hidden
    enabled: false
`

func TestParseDefinition(t *testing.T) {
	def, err := form.ParseDefinition([]byte(greetYAML), form.Bindings{
		Fields: map[string]form.Binding{
			"name":   {Validate: identity},
			"shout":  {Validate: identity},
			"hidden": {Validate: fail("hidden")},
		},
	})
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if def.Name() != "greet" {
		t.Fatalf("name = %q", def.Name())
	}

	f := mustNew(t, def, source.Map{"name": "ann", "shout": true, "hidden": 1})
	want := form.Values{"name": "ann", "shout": true, "hidden": nil}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestParseDefinitionErrors(t *testing.T) {
	cases := map[string]struct {
		yaml string
		b    form.Bindings
	}{
		"malformed":          {yaml: "name: [", b: form.Bindings{}},
		"missing name":       {yaml: "fields: []", b: form.Bindings{}},
		"undeclared binding": {yaml: greetYAML, b: form.Bindings{Fields: map[string]form.Binding{"typo": {}}}},
		"bad field":          {yaml: "name: x\nfields:\n  - id: a\n", b: form.Bindings{}},
	}
	for name, tc := range cases {
		if _, err := form.ParseDefinition([]byte(tc.yaml), tc.b); err == nil {
			t.Fatalf("%s: want error", name)
		}
	}
}

/*──────────────────────────── registry ────────────────────────────────────*/

func TestRegistryLoadsLazily(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(first, "greet.yaml"), []byte(greetYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(second, "greet.yaml"), []byte("name: other\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := form.NewRegistry(first, second)
	reg.Register(form.MustDefinition("coded", form.Hooks{}))
	reg.Bind("greet", form.Bindings{})

	if diff := cmp.Diff([]string{"coded", "greet"}, reg.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}

	def, err := reg.Get("greet")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(def.Fields()) != 3 {
		t.Fatalf("loaded from the wrong directory: %v", ids(def.Fields()))
	}
	again, _ := reg.Get("greet")
	if again != def {
		t.Fatalf("second Get reloaded the definition")
	}
}

func TestRegistryUnknown(t *testing.T) {
	reg := form.NewRegistry(t.TempDir())
	reg.Bind("absent", form.Bindings{})
	reg.Bind("../escape", form.Bindings{})

	for _, name := range []string{"never-bound", "absent", "../escape"} {
		if _, err := reg.Get(name); !errors.Is(err, form.ErrUnknownForm) {
			t.Fatalf("%s: want ErrUnknownForm, got %v", name, err)
		}
	}
}

/*──────────────────────────── batch ───────────────────────────────────────*/

func TestRunAllKeepsOrder(t *testing.T) {
	def := form.MustDefinition("batch", form.Hooks{},
		&form.Descriptor{ID: "n", Key: "n", Validate: func(raw any) (any, error) {
			if raw == "bad" {
				return nil, form.NewValidationError("bad")
			}
			return raw, nil
		}},
	)
	srcs := []form.Source{source.Map{"n": 1}, source.Map{"n": "bad"}, source.Map{"n": 3}}

	forms, err := form.RunAll(context.Background(), def, srcs, 2)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	got := []any{}
	for _, f := range forms {
		got = append(got, f.Values().Get("n"))
	}
	if diff := cmp.Diff([]any{1, nil, 3}, got); diff != "" {
		t.Fatalf("batch values (-want +got):\n%s", diff)
	}
}

func TestRunAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	def := form.MustDefinition("batch", form.Hooks{}, &form.Descriptor{ID: "n", Key: "n", Validate: identity})
	if _, err := form.RunAll(ctx, def, []form.Source{source.Map{}}, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
