// internal/config/model.go
//
// Typed configuration model for formscribe.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                              – dotenv values,
//   • `conf/formscribe.yaml`                       – primary static file,
//   • `FORMSCRIBE_`-prefixed environment overrides – highest precedence.
//
// Any string value beginning with `vault:` is resolved through the Vault
// client before validation, so the model never stores Vault URIs.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string `koanf:"listen_addr"    validate:"required,hostname_port"`
	ForceHTTPS   bool   `koanf:"force_https"`
	MaxBodyBytes int64  `koanf:"max_body_bytes" validate:"gte=0"`
}

//
// Forms section
//

// Forms tunes the engine and names the YAML definition directories, in
// precedence order.
type Forms struct {
	Dirs        []string `koanf:"dirs"`
	MaxDepth    int      `koanf:"max_depth"   validate:"gte=0,lte=4096"`
	BatchLimit  int      `koanf:"batch_limit" validate:"gte=0"`
	StoreTable  string   `koanf:"store_table" validate:"omitempty,sqlident"`
	WebhookURL  string   `koanf:"webhook_url" validate:"omitempty,url"`
	NotifyEmail []string `koanf:"notify_email" validate:"dive,email"`
}

//
// Database section
//

// Database holds the DSN template and its secret.  The password is usually
// a `vault:` reference.  Both are optional: without a DSN the store action
// is disabled.
type Database struct {
	DSN      string `koanf:"dsn"`
	Password string `koanf:"password" validate:"required_with=DSN"`
}

//
// Log section
//

// Log configures internal/logger.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Geo section
//

// Geo points at an optional GeoLite2-City database.
type Geo struct {
	DBPath string `koanf:"db_path" validate:"omitempty,file"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime.
type Paths struct {
	Root string // FORMSCRIBE_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Forms    Forms    `koanf:"forms"`
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"`
}

// Defaults returns the values applied before any layer is read.
func Defaults() map[string]any {
	return map[string]any{
		"http.listen_addr":    ":8080",
		"http.max_body_bytes": int64(1 << 20),
		"forms.dirs":          []string{"forms"},
		"forms.max_depth":     64,
		"forms.batch_limit":   8,
		"forms.store_table":   "form_submission",
		"log.level":           "info",
	}
}
