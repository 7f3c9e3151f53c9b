// components/contact/contact.go
//
// formscribe contact component – Go half of forms/contact.yaml.
//
// Context
//   The YAML file declares addressing and dependencies; this package binds
//   behaviour to each field identity:
//
//     •  csrf       – token issued by GET /forms/contact/token.
//     •  email      – required, must be an address.
//     •  message    – required, markup stripped, at most 2000 runes.
//     •  newsletter – checkbox.
//     •  topic      – one of Topics, asked only when newsletter is on.
//
//------------------------------------------------------------------------------

package contact

import (
	"unicode/utf8"

	"github.com/yanizio/formscribe/internal/component"
	"github.com/yanizio/formscribe/internal/csrf"
	"github.com/yanizio/formscribe/internal/form"
	"github.com/yanizio/formscribe/internal/form/decorate"
)

// FormName matches the `name:` of forms/contact.yaml.
const FormName = "contact"

// Topics are the newsletter subjects a visitor may pick.
var Topics = []any{"travel", "product", "events"}

var _ component.Component = (*Component)(nil)

type Component struct{}

func (c *Component) Name() string              { return "contact" }
func (c *Component) Forms() []*form.Definition { return nil }
func (c *Component) Bindings() map[string]form.Bindings {
	return map[string]form.Bindings{FormName: Bindings()}
}

func init() { component.Register(&Component{}) }

// Bindings returns the behaviour of every contact field.
func Bindings() form.Bindings {
	return form.Bindings{
		Fields: map[string]form.Binding{
			"csrf": {Validate: checkToken},
			"email": {Validate: decorate.Chain(nil,
				decorate.Required("Email is required."),
				decorate.Trim(),
				decorate.Tag("email", "Email address is not valid."))},
			"message": {Validate: decorate.Chain(shortText,
				decorate.Required("Message is required."),
				decorate.Trim(),
				decorate.Sanitize())},
			"newsletter": {Validate: decorate.Chain(nil, decorate.Boolean())},
			"topic": {Validate: decorate.Chain(nil,
				decorate.OneOf(Topics, "Pick a newsletter topic."))},
		},
	}
}

func checkToken(raw any) (any, error) {
	tok, _ := raw.(string)
	if tok == "" || !csrf.Verify(tok) {
		return nil, form.NewValidationError("Your session expired, reload the page and try again.")
	}
	// The token is not part of the submission.
	return nil, nil
}

func shortText(raw any) (any, error) {
	s, _ := raw.(string)
	if utf8.RuneCountInString(s) > 2000 {
		return nil, form.NewValidationError("Message is too long.")
	}
	return s, nil
}
