package login

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/formscribe/internal/form"
	"github.com/yanizio/formscribe/internal/source"
)

func TestLoginEndToEnd(t *testing.T) {
	sess := &Session{}
	f, err := form.New(Definition(), source.Map{
		"confirmation_code": " 33 ",
		"password":          " 12345 ",
		"username":          " TEST_UsErNaMe ",
	}, form.WithValue("session", sess))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if errs := f.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !f.Submitted() {
		t.Fatalf("form not submitted")
	}

	want := form.Values{
		"confirmation_code": 33,
		"username":          "test_username",
		"password":          "12345",
	}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	user, code, ok := sess.SignedIn()
	if !ok || user != "test_username" || code != 33 {
		t.Fatalf("session = %q %d %v", user, code, ok)
	}
}

func TestLoginOtherUserSkipsPassword(t *testing.T) {
	f, _ := form.New(Definition(), source.Map{
		"confirmation_code": "7",
		"username":          "Someone",
		"password":          "not digits",
	})
	if !f.Valid() {
		t.Fatalf("unexpected errors: %v", f.Errors())
	}
	if got := f.Status("password"); got != form.Skipped {
		t.Fatalf("password status = %v, want skipped", got)
	}
	if v := f.Values().Get("password"); v != nil {
		t.Fatalf("password value = %v, want nil", v)
	}
}

func TestLoginBadCode(t *testing.T) {
	f, _ := form.New(Definition(), source.Map{
		"confirmation_code": "abc",
		"username":          "test_username",
		"password":          "1",
	})

	// username only needs the code attempted; password needs username.
	if got := f.Status("username"); got != form.Valid {
		t.Fatalf("username status = %v, want valid", got)
	}
	msgs := form.Messages(f.Errors())
	if diff := cmp.Diff([]any{"Confirmation code must be a number."}, msgs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if f.Submitted() {
		t.Fatalf("form with errors must not submit")
	}
}
