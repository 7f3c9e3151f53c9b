package products

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/formscribe/internal/form"
	"github.com/yanizio/formscribe/internal/source"
)

func TestOrderGroups(t *testing.T) {
	f, err := form.New(Definition(), source.Map{
		"item-foo-amount":  10,
		"item-foo-enabled": 1,
		"item-bar-amount":  5,
		"item-bar-enabled": 1,
		"item-baz-enabled": 1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !f.Valid() {
		t.Fatalf("unexpected errors: %v", f.Errors())
	}

	got := map[string]map[string]any{}
	for _, inst := range f.Values().Group("item") {
		got[inst.Matches[0]] = inst.Values
	}
	want := map[string]map[string]any{
		"foo": {"amount": 10, "enabled": true},
		"bar": {"amount": 5, "enabled": true},
		"baz": {"enabled": true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderRejects(t *testing.T) {
	cases := map[string]struct {
		in   source.Map
		want []any
	}{
		"unknown sku": {
			source.Map{"item-qux-amount": 1, "item-qux-enabled": "on"},
			[]any{`Unknown product "qux".`},
		},
		"nothing enabled": {
			source.Map{"item-foo-amount": 2},
			[]any{"Select at least one product with a quantity."},
		},
		"bad quantity": {
			source.Map{"item-foo-amount": 0, "item-foo-enabled": 1, "item-bar-amount": 1, "item-bar-enabled": 1},
			[]any{"Quantity must be between 1 and 99."},
		},
	}
	for name, tc := range cases {
		f, _ := form.New(Definition(), tc.in)
		if diff := cmp.Diff(tc.want, form.Messages(f.Errors())); diff != "" {
			t.Fatalf("%s: errors mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestCatalogRoute(t *testing.T) {
	w := httptest.NewRecorder()
	(&Component{}).Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	skus := []string{}
	for s := range Catalog {
		skus = append(skus, s)
	}
	sort.Strings(skus)
	body := w.Body.String()
	last := -1
	for _, s := range skus {
		i := strings.Index(body, `"sku":"`+s+`"`)
		if i <= last {
			t.Fatalf("catalog not sorted or missing %q: %s", s, body)
		}
		last = i
	}
}
