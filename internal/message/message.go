// internal/message/message.go
//
// formscribe – Outbound messages for post-submit actions.
//
// Context
//   The action runner hands finished submissions to this package.  Webhooks
//   are delivered directly with a bounded HTTP client; a non-2xx answer is an
//   error.  Email has no transport wired yet, so EnqueueEmail records the job
//   in the structured log and returns nil, letting callers proceed.
//
// Style
//   Callers build the *http.Request themselves (method, headers, JSON body).
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yanizio/formscribe/internal/logger"
)

// Email represents a basic outbound email job.
type Email struct {
	To      []string
	Subject string
	Text    string
}

// Client delivers webhooks.  Tests swap it for one pointed at httptest.
var Client = &http.Client{Timeout: 10 * time.Second}

// EnqueueEmail logs the email payload.
func EnqueueEmail(ctx context.Context, msg Email) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message: email has no recipients")
	}
	logger.FromContext(ctx).Infow("email queued",
		"to", msg.To, "subject", msg.Subject, "bytes", len(msg.Text))
	return nil
}

// SendWebhook performs req and drains the response.  Any status outside
// 2xx is returned as an error.
func SendWebhook(ctx context.Context, req *http.Request) error {
	resp, err := Client.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("message: webhook %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("message: webhook %s: status %d", req.URL.Host, resp.StatusCode)
	}
	logger.FromContext(ctx).Debugw("webhook delivered",
		"method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)
	return nil
}
