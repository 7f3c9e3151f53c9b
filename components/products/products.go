// components/products/products.go
//
// formscribe products component – an order form with repeated line items.
//
// Context
//   Each catalog entry is posted as a pair of keys sharing its SKU:
//
//       item-<sku>-amount   integer quantity, 1..99
//       item-<sku>-enabled  checkbox
//
//   Both fields belong to the regex group "item", so the keyword mapping
//   holds one instance per SKU.  The whole-form hook rejects unknown SKUs
//   and an order with nothing enabled.
//
//   GET /components/products/ lists the catalog.
//
//------------------------------------------------------------------------------

package products

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/yanizio/formscribe/internal/component"
	"github.com/yanizio/formscribe/internal/form"
	"github.com/yanizio/formscribe/internal/form/decorate"
)

// FormName is the registry name of the order form.
const FormName = "products"

// Catalog maps SKU to display name.
var Catalog = map[string]string{
	"foo": "Foo travel adapter",
	"bar": "Bar luggage tag",
	"baz": "Baz neck pillow",
}

var (
	_ component.Component = (*Component)(nil)
	_ component.Router    = (*Component)(nil)
)

type Component struct{}

func (c *Component) Name() string                       { return "products" }
func (c *Component) Forms() []*form.Definition          { return []*form.Definition{Definition()} }
func (c *Component) Bindings() map[string]form.Bindings { return nil }

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		skus := make([]string, 0, len(Catalog))
		for s := range Catalog {
			skus = append(skus, s)
		}
		sort.Strings(skus)

		out := make([]map[string]string, 0, len(skus))
		for _, s := range skus {
			out = append(out, map[string]string{"sku": s, "name": Catalog[s]})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"catalog": out})
	})
	return r
}

func init() { component.Register(&Component{}) }

var (
	defOnce sync.Once
	def     *form.Definition
)

// Definition returns the order form, built once.
func Definition() *form.Definition {
	defOnce.Do(func() {
		def = form.MustDefinition(FormName, form.Hooks{Validate: validateOrder},
			&form.Descriptor{
				ID:            "item_amount",
				RegexKey:      `item-(\w+)-amount`,
				RegexGroup:    "item",
				RegexGroupKey: "amount",
				Validate: decorate.Chain(quantity,
					decorate.Integer("Quantity must be a whole number.")),
			},
			&form.Descriptor{
				ID:            "item_enabled",
				RegexKey:      `item-(\w+)-enabled`,
				RegexGroup:    "item",
				RegexGroupKey: "enabled",
				Validate:      decorate.Chain(nil, decorate.Boolean()),
			},
		)
	})
	return def
}

func quantity(raw any) (any, error) {
	n := raw.(int) // decorate.Integer guarantees int
	if n < 1 || n > 99 {
		return nil, form.NewValidationError("Quantity must be between 1 and 99.")
	}
	return n, nil
}

func validateOrder(_ *form.Form, kw form.Values) error {
	ordered := 0
	for _, inst := range kw.Group("item") {
		sku := inst.Matches[0]
		if _, ok := Catalog[sku]; !ok {
			return form.NewValidationError(fmt.Sprintf("Unknown product %q.", sku))
		}
		enabled, _ := inst.Get("enabled")
		if on, _ := enabled.(bool); on {
			if _, hasAmount := inst.Get("amount"); hasAmount {
				ordered++
			}
		}
	}
	if ordered == 0 {
		return form.NewValidationError("Select at least one product with a quantity.")
	}
	return nil
}
