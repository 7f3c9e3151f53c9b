// internal/csrf/csrf.go
//
// formscribe – Stateless anti-forgery tokens.
//
// Context
//   Forms that need request-forgery protection declare a `csrf` field whose
//   Validate hook calls Verify.  Tokens are stateless so any instance can
//   check them:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – issue time, 8 bytes, big-endian.
//   •  HMAC – keyed with the process secret.
//
//   A token is accepted when the signature matches and its age is within
//   MaxAge (one minute of future skew is tolerated).
//
// Workflow
//   •  Token()     → issue a token, e.g. from GET /forms/{name}/token.
//   •  Verify(tok) → constant-time check; false on any failure.
//
//------------------------------------------------------------------------------

package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	nonceLen  = 16
	tokenLen  = nonceLen + 8 + sha256.Size
	maxSkew   = time.Minute
	SecretEnv = "FORMSCRIBE_CSRF_KEY" // base64url, at least 32 bytes
)

// MaxAge is the default validity window.
const MaxAge = 2 * time.Hour

// ErrShortSecret is returned by NewSigner for secrets under 32 bytes.
var ErrShortSecret = errors.New("csrf: secret must be at least 32 bytes")

// Signer issues and verifies tokens under one secret.
type Signer struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer.  maxAge <= 0 selects MaxAge.
func NewSigner(secret []byte, maxAge time.Duration) (*Signer, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	if maxAge <= 0 {
		maxAge = MaxAge
	}
	return &Signer{secret: append([]byte(nil), secret...), maxAge: maxAge, now: time.Now}, nil
}

// Token issues a fresh token.
func (s *Signer) Token() (string, error) {
	buf := make([]byte, tokenLen)
	if _, err := rand.Read(buf[:nonceLen]); err != nil {
		return "", err
	}
	binary.BigEndian.PutUint64(buf[nonceLen:nonceLen+8], uint64(s.now().UnixMicro()))
	copy(buf[nonceLen+8:], s.sign(buf[:nonceLen+8]))
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok is authentic and fresh.
func (s *Signer) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenLen {
		return false
	}

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(raw[nonceLen : nonceLen+8])))
	now := s.now()
	if now.Sub(issued) > s.maxAge || issued.Sub(now) > maxSkew {
		return false
	}
	return hmac.Equal(raw[nonceLen+8:], s.sign(raw[:nonceLen+8]))
}

func (s *Signer) sign(msg []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(msg)
	return mac.Sum(nil)
}

/*──────────────────────────── process default ─────────────────────────────*/

var (
	defaultOnce   sync.Once
	defaultSigner *Signer
)

// Default returns the process-wide Signer keyed from FORMSCRIBE_CSRF_KEY.
// When the variable is unset or unusable a random key is generated, so
// tokens do not survive a restart.
func Default() *Signer {
	defaultOnce.Do(func() {
		if env := os.Getenv(SecretEnv); env != "" {
			if b, err := base64.RawURLEncoding.DecodeString(env); err == nil {
				if s, err := NewSigner(b, MaxAge); err == nil {
					defaultSigner = s
					return
				}
			}
			zap.S().Warnw("csrf key unusable, falling back to random key", "env", SecretEnv)
		} else {
			zap.S().Warnw("csrf key not set, using random key", "env", SecretEnv)
		}
		key := make([]byte, 32)
		_, _ = rand.Read(key)
		defaultSigner, _ = NewSigner(key, MaxAge)
	})
	return defaultSigner
}

// Token issues a token with Default().
func Token() (string, error) { return Default().Token() }

// Verify checks tok with Default().
func Verify(tok string) bool { return Default().Verify(tok) }
