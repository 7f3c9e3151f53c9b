// internal/vault/vault.go
//
// Secret lookups for `vault:` configuration references.
//
// Context
// -------
// formscribe keeps credentials (the store action's database password, SMTP
// relay secrets) out of `conf/formscribe.yaml`.  The config loader replaces
// every `vault:<mount/path>#<key>` string with the value returned by
// `Client.GetKV`.  Lookups are cached per `path#key` for a caller-supplied
// TTL so reloads do not hammer the server.
//
// Workflow
// --------
//  1. cli, err := vault.New(ctx, zap.S().Infof)     // first reference only.
//  2. pw,  err := cli.GetKV(ctx, "secret/formscribe/db", "password", ttl)
//
// The client renews its own token in the background until ctx ends.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// ErrEmptyRef is returned by GetKV when either half of a reference is blank.
var ErrEmptyRef = errors.New("vault: secret path and key must be non-empty")

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api   *vault.Client
	logFn func(string, ...any)

	mu    sync.RWMutex
	cache map[string]entry // path#key → value + expiry
}

type entry struct {
	val string
	exp time.Time
}

// New reads VAULT_ADDR and VAULT_TOKEN from the environment, builds a
// client, and starts token renewal bound to ctx.
func New(ctx context.Context, logFn func(string, ...any)) (*Client, error) {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}

	c := &Client{api: api, logFn: logFn, cache: make(map[string]entry)}
	go c.renewLoop(ctx)
	return c, nil
}

// GetKV returns one string key of a KV-v2 secret.  With ttl > 0 the value
// is served from cache until it expires.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", ErrEmptyRef
	}
	ref := secretPath + "#" + key

	if v, ok := c.cached(ref); ok {
		return v, nil
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("vault: key %q not found in %q", key, secretPath)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault: %s is not a string", ref)
	}

	if ttl > 0 {
		c.mu.Lock()
		c.cache[ref] = entry{val: val, exp: time.Now().Add(ttl)}
		c.mu.Unlock()
	}
	return val, nil
}

func (c *Client) cached(ref string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.cache[ref]
	if !ok || !time.Now().Before(e.exp) {
		return "", false
	}
	return e.val, true
}

/*──────────────────────────── token renewal ───────────────────────────────*/

func (c *Client) renewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		wait := c.renewOnce(ctx)
		sleep(ctx, wait)
	}
}

// renewOnce runs one renewer until it stops and returns how long to wait
// before probing the token again.
func (c *Client) renewOnce(ctx context.Context) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelf(0)
	if err != nil {
		c.logFn("vault: token renew-self failed: %v", err)
		return 30 * time.Second
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		c.logFn("vault: token is not renewable, next probe in 1h")
		return time.Hour
	}

	w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: sec,
		Grace:  15 * time.Second,
	})
	if err != nil {
		c.logFn("vault: watcher init: %v", err)
		return 30 * time.Second
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-w.DoneCh():
			if err != nil {
				c.logFn("vault: token renewal stopped: %v", err)
			}
			return 15 * time.Second
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.logFn("vault: token renewed, ttl=%ds", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// splitMount turns "secret/formscribe/db" into ("secret", "formscribe/db").
func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
