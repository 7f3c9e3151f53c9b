package contact

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/formscribe/internal/csrf"
	"github.com/yanizio/formscribe/internal/form"
	"github.com/yanizio/formscribe/internal/source"
)

func loadContact(t *testing.T) *form.Definition {
	t.Helper()
	reg := form.NewRegistry("../../forms")
	reg.Bind(FormName, Bindings())
	def, err := reg.Get(FormName)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return def
}

func TestContactAccepted(t *testing.T) {
	tok, err := csrf.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	f, _ := form.New(loadContact(t), source.Map{
		"csrf_token": tok,
		"email":      " ann@example.com ",
		"message":    "Hello <script>alert(1)</script>there",
		"newsletter": "1",
		"topic":      "travel",
	})
	if !f.Valid() {
		t.Fatalf("unexpected errors: %v", f.Errors())
	}

	want := form.Values{
		"csrf":       nil,
		"email":      "ann@example.com",
		"message":    "Hello there",
		"newsletter": true,
		"topic":      "travel",
	}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestContactRejected(t *testing.T) {
	f, _ := form.New(loadContact(t), source.Map{
		"csrf_token": "forged",
		"email":      "not-an-address",
		"message":    "hi",
		"topic":      "anything", // ignored, newsletter is off
	})

	want := []any{
		"Your session expired, reload the page and try again.",
		"Email address is not valid.",
	}
	if diff := cmp.Diff(want, form.Messages(f.Errors())); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if got := f.Status("topic"); got != form.Skipped {
		t.Fatalf("topic status = %v, want skipped", got)
	}
	// message waits for email to be attempted, not to pass.
	if got := f.Status("message"); got != form.Valid {
		t.Fatalf("message status = %v, want valid", got)
	}
}
