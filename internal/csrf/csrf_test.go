package csrf

import (
	"bytes"
	"testing"
	"time"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner(bytes.Repeat([]byte("k"), 32), time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func TestRoundTrip(t *testing.T) {
	s := newTestSigner(t)
	tok, err := s.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if !s.Verify(tok) {
		t.Fatalf("fresh token rejected")
	}
}

func TestRejects(t *testing.T) {
	s := newTestSigner(t)
	tok, _ := s.Token()

	other, _ := NewSigner(bytes.Repeat([]byte("z"), 32), time.Hour)
	if other.Verify(tok) {
		t.Fatalf("token accepted under a different secret")
	}

	for _, bad := range []string{"", "!!!", tok[:len(tok)-2]} {
		if s.Verify(bad) {
			t.Fatalf("malformed token %q accepted", bad)
		}
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if s.Verify(tok) {
		t.Fatalf("expired token accepted")
	}
}

func TestShortSecret(t *testing.T) {
	if _, err := NewSigner([]byte("short"), 0); err != ErrShortSecret {
		t.Fatalf("want ErrShortSecret, got %v", err)
	}
}
