package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "junk, 203.0.113.7, 10.0.0.1"}, "10.0.0.2:1", "203.0.113.7"},
		{"real-ip", map[string]string{"X-Real-Ip": "198.51.100.4"}, "10.0.0.2:1", "198.51.100.4"},
		{"remote", nil, "192.0.2.9:5555", "192.0.2.9"},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodPost, "/forms/login", nil)
		r.RemoteAddr = tc.remote
		for k, v := range tc.header {
			r.Header.Set(k, v)
		}
		if got := clientIP(r); got.String() != tc.want {
			t.Fatalf("%s: got %v, want %s", tc.name, got, tc.want)
		}
	}
}

func TestPrimaryLang(t *testing.T) {
	for in, want := range map[string]string{
		"":                    "",
		"en-US,en;q=0.9":      "en-us",
		"fr;q=0.8, de":        "fr",
		" ES ":                "es",
	} {
		if got := primaryLang(in); got != want {
			t.Fatalf("primaryLang(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareAttachesInfo(t *testing.T) {
	var got *Info
	h := (&Resolver{}).Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/forms/login", nil)
	r.Header.Set("User-Agent", "curl/8.0")
	r.Header.Set("Accept-Language", "nl-BE")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got == nil {
		t.Fatalf("no Info in context")
	}
	if got.Path != "/forms/login" || got.UA.Raw != "curl/8.0" || got.UA.PrimaryLang != "nl-be" {
		t.Fatalf("unexpected info: %+v", got)
	}
}
