package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestForceHTTPS(t *testing.T) {
	cases := []struct {
		host, proto string
		want        int
	}{
		{"forms.example.com", "", http.StatusPermanentRedirect},
		{"forms.example.com", "https", http.StatusOK},
		{"localhost:8080", "", http.StatusOK},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "http://"+tc.host+"/forms/login?x=1", nil)
		if tc.proto != "" {
			r.Header.Set("X-Forwarded-Proto", tc.proto)
		}
		w := httptest.NewRecorder()
		ForceHTTPS(ok).ServeHTTP(w, r)
		if w.Code != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.host, w.Code, tc.want)
		}
		if w.Code == http.StatusPermanentRedirect {
			if loc := w.Header().Get("Location"); loc != "https://forms.example.com/forms/login?x=1" {
				t.Fatalf("Location = %q", loc)
			}
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	Security(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, kv := range securityHeaders {
		if got := w.Header().Get(kv[0]); got != kv[1] {
			t.Fatalf("%s = %q, want %q", kv[0], got, kv[1])
		}
	}
}
