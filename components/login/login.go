// components/login/login.go
//
// formscribe login component – the confirmation-code sign-in form.
//
// Context
//   Three fields, declared in Go:
//
//     •  confirmation_code – required integer.
//     •  username          – trimmed and lower-cased; waits until the code
//                           has been attempted.
//     •  password          – digits only, returned as a string; active only
//                           when username validated to "test_username".
//
//   The whole-form submit hook records the sign-in on the *Session injected
//   under the "session" form value.  Without one it does nothing.
//
//------------------------------------------------------------------------------

package login

import (
	"strconv"
	"strings"
	"sync"

	"github.com/yanizio/formscribe/internal/component"
	"github.com/yanizio/formscribe/internal/form"
	"github.com/yanizio/formscribe/internal/form/decorate"
)

// FormName is the registry name of the login form.
const FormName = "login"

// DemoUser is the only username for which a password is requested.
const DemoUser = "test_username"

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component owns the login form.
type Component struct{}

func (c *Component) Name() string                       { return "login" }
func (c *Component) Forms() []*form.Definition          { return []*form.Definition{Definition()} }
func (c *Component) Bindings() map[string]form.Bindings { return nil }

func init() { component.Register(&Component{}) }

/*──────────────────────────── definition ──────────────────────────────────*/

var (
	defOnce sync.Once
	def     *form.Definition
)

// Definition returns the login form, built once.
func Definition() *form.Definition {
	defOnce.Do(func() {
		def = form.MustDefinition(FormName, form.Hooks{Submit: submit},
			&form.Descriptor{
				ID:  "confirmation_code",
				Key: "confirmation_code",
				Validate: decorate.Chain(nil,
					decorate.Required("Confirmation code is required."),
					decorate.Integer("Confirmation code must be a number.")),
			},
			&form.Descriptor{
				ID:            "username",
				Key:           "username",
				WhenValidated: []string{"confirmation_code"},
				Validate: decorate.Chain(normalizeUsername,
					decorate.Required("Username is required.")),
			},
			&form.Descriptor{
				ID:        "password",
				Key:       "password",
				WhenValue: map[string]any{"username": DemoUser},
				Validate: decorate.Chain(digitsToString,
					decorate.Integer("Password must be numeric.")),
			},
		)
	})
	return def
}

func normalizeUsername(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, form.NewValidationError("Username must be text.")
	}
	return strings.ToLower(strings.TrimSpace(s)), nil
}

// digitsToString receives the integer produced by decorate.Integer.
func digitsToString(raw any) (any, error) {
	n, ok := raw.(int)
	if !ok || n < 0 {
		return nil, form.NewValidationError("Password must be numeric.")
	}
	return strconv.Itoa(n), nil
}

/*──────────────────────────── session ─────────────────────────────────────*/

// Session is the collaborator the submit hook writes to.
type Session struct {
	mu       sync.Mutex
	username string
	code     int
	signedIn bool
}

// SignedIn reports the recorded user, if any.
func (s *Session) SignedIn() (username string, code int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username, s.code, s.signedIn
}

func submit(f *form.Form, kw form.Values) error {
	sess, _ := f.Value("session").(*Session)
	if sess == nil {
		return nil
	}
	user, _ := kw.String("username")
	code, _ := kw.Get("confirmation_code").(int)

	sess.mu.Lock()
	sess.username, sess.code, sess.signedIn = user, code, true
	sess.mu.Unlock()
	return nil
}
