// internal/action/action.go
//
// formscribe – Post-submit actions.
//
// Context
//   After a form pass finishes with no errors, the HTTP layer hands its
//   keyword mapping to Runner.Execute.  Three actions exist, each enabled by
//   configuration:
//
//     •  store   – INSERT one row (form name, time, JSON data) when a
//                   database handle and a table are configured.
//     •  webhook – POST the JSON data to forms.webhook_url.
//     •  email   – queue a plain-text summary to forms.notify_email.
//
//   Actions run in that order and never stop one another.  Failures are
//   logged, counted in metrics.ActionErrorsTotal, and joined into the
//   returned error so callers may decide whether the user should know.
//
//------------------------------------------------------------------------------

package action

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/formscribe/internal/config"
	"github.com/yanizio/formscribe/internal/logger"
	"github.com/yanizio/formscribe/internal/message"
	"github.com/yanizio/formscribe/internal/metrics"
)

// Config selects and parameterises the actions.
type Config struct {
	StoreTable  string
	WebhookURL  string
	NotifyEmail []string
}

// FromConfig copies the action settings out of the forms section.
func FromConfig(f config.Forms) Config {
	return Config{StoreTable: f.StoreTable, WebhookURL: f.WebhookURL, NotifyEmail: f.NotifyEmail}
}

// Runner executes actions.  A nil db disables store.
type Runner struct {
	db  *sqlx.DB
	cfg Config
	now func() time.Time
}

// New returns a Runner.  It rejects a table name that is not a plain SQL
// identifier because the name is interpolated into the INSERT.
func New(db *sqlx.DB, cfg Config) (*Runner, error) {
	if db != nil && cfg.StoreTable != "" && !config.ValidTableName(cfg.StoreTable) {
		return nil, fmt.Errorf("action: invalid store table %q", cfg.StoreTable)
	}
	return &Runner{db: db, cfg: cfg, now: time.Now}, nil
}

// Execute runs every enabled action for one accepted submission.
func (r *Runner) Execute(ctx context.Context, formName string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("action: encode %s: %w", formName, err)
	}

	var errs []error
	run := func(name string, fn func() error) {
		if err := fn(); err != nil {
			metrics.ActionErrorsTotal.WithLabelValues(name).Inc()
			logger.FromContext(ctx).Errorw("form action failed",
				"form", formName, "action", name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if r.db != nil && r.cfg.StoreTable != "" {
		run("store", func() error { return r.store(ctx, formName, payload) })
	}
	if r.cfg.WebhookURL != "" {
		run("webhook", func() error { return r.webhook(ctx, formName, payload) })
	}
	if len(r.cfg.NotifyEmail) > 0 {
		run("email", func() error { return r.email(ctx, formName, data) })
	}
	return errors.Join(errs...)
}

/*──────────────────────────── store ───────────────────────────────────────*/

func (r *Runner) store(ctx context.Context, formName string, payload []byte) error {
	q := fmt.Sprintf(`INSERT INTO %s (form_name, submitted_at, data) VALUES (?, ?, ?)`, r.cfg.StoreTable)
	_, err := r.db.ExecContext(ctx, q, formName, r.now().UTC(), payload)
	return err
}

/*──────────────────────────── webhook ─────────────────────────────────────*/

func (r *Runner) webhook(ctx context.Context, formName string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Formscribe-Form", formName)
	return message.SendWebhook(ctx, req)
}

/*──────────────────────────── email ───────────────────────────────────────*/

func (r *Runner) email(ctx context.Context, formName string, data map[string]any) error {
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return message.EnqueueEmail(ctx, message.Email{
		To:      r.cfg.NotifyEmail,
		Subject: "Form submission: " + formName,
		Text:    string(body),
	})
}
