package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", errors.New("no such secret")
	}
	return v, nil
}

func writeConf(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if yaml != "" {
		if err := os.WriteFile(filepath.Join(root, "conf", "formscribe.yaml"), []byte(yaml), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestLoadDefaults(t *testing.T) {
	root := writeConf(t, "")
	cfg, err := LoadFrom(root, nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":8080" || cfg.Forms.MaxDepth != 64 || cfg.Forms.StoreTable != "form_submission" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "forms")}, cfg.Forms.Dirs); diff != "" {
		t.Fatalf("form dirs (-want +got):\n%s", diff)
	}
	if Get() != cfg {
		t.Fatalf("Get does not return the last loaded config")
	}
}

func TestLoadLayers(t *testing.T) {
	root := writeConf(t, `
http:
  listen_addr: ":9000"
forms:
  dirs: [forms, /srv/shared]
  webhook_url: https://hooks.example.com/in
database:
  dsn: "app@tcp(db:3306)/forms"
  password: "vault:secret/formscribe/db#password"
`)
	t.Setenv("FORMSCRIBE_HTTP__LISTEN_ADDR", "127.0.0.1:7000")

	cfg, err := LoadFrom(root, fakeSecrets{"secret/formscribe/db#password": "s3cret"})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:7000" {
		t.Fatalf("env did not override yaml: %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Database.Password != "s3cret" {
		t.Fatalf("vault reference not resolved: %q", cfg.Database.Password)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "forms"), "/srv/shared"}, cfg.Forms.Dirs); diff != "" {
		t.Fatalf("form dirs (-want +got):\n%s", diff)
	}
	if cfg.Forms.WebhookURL != "https://hooks.example.com/in" {
		t.Fatalf("webhook = %q", cfg.Forms.WebhookURL)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"bad level":      "log:\n  level: loud\n",
		"bad table":      "forms:\n  store_table: \"x; drop\"\n",
		"dsn no secret":  "database:\n  dsn: \"app@tcp(db)/f\"\n",
		"malformed ref":  "database:\n  dsn: d\n  password: \"vault:nohash\"\n",
		"missing secret": "database:\n  dsn: d\n  password: \"vault:secret/x#y\"\n",
		"broken yaml":    "http: [",
	}
	for name, yaml := range cases {
		if _, err := LoadFrom(writeConf(t, yaml), fakeSecrets{}); err == nil {
			t.Fatalf("%s: want error", name)
		}
	}
}

func TestValidTableName(t *testing.T) {
	for s, want := range map[string]bool{
		"form_submission": true,
		"_t1":             true,
		"1table":          false,
		"a-b":             false,
		"":                false,
		"t; DROP":         false,
	} {
		if got := ValidTableName(s); got != want {
			t.Fatalf("ValidTableName(%q) = %v", s, got)
		}
	}
}
