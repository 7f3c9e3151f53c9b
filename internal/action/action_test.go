// internal/action/action_test.go
//
// Store via sqlmock, webhook via httptest.
//
// Run: go test ./internal/action -v

package action

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestStoreInsertsJSON(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "mysql")

	r, err := New(db, Config{StoreTable: "form_submission"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return at }

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO form_submission (form_name, submitted_at, data) VALUES (?, ?, ?)`,
	)).
		WithArgs("login", at, []byte(`{"username":"ann"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := r.Execute(context.Background(), "login", map[string]any{"username": "ann"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestStoreRejectsBadTable(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer mockDB.Close()

	if _, err := New(sqlx.NewDb(mockDB, "mysql"), Config{StoreTable: "x; DROP TABLE y"}); err == nil {
		t.Fatalf("expected error for unsafe table name")
	}
}

func TestWebhookPostsPayload(t *testing.T) {
	var gotBody, gotForm string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		gotForm = req.Header.Get("X-Formscribe-Form")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	r, _ := New(nil, Config{WebhookURL: srv.URL})
	if err := r.Execute(context.Background(), "products", map[string]any{"n": 1}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotBody != `{"n":1}` || gotForm != "products" {
		t.Fatalf("webhook got body=%q form=%q", gotBody, gotForm)
	}
}

func TestFailuresAreJoined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r, _ := New(nil, Config{WebhookURL: srv.URL, NotifyEmail: []string{"ops@example.com"}})
	err := r.Execute(context.Background(), "login", map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "webhook") {
		t.Fatalf("expected webhook failure, got %v", err)
	}
	if strings.Contains(err.Error(), "email") {
		t.Fatalf("email should have succeeded: %v", err)
	}
}

func TestNothingConfigured(t *testing.T) {
	r, _ := New(nil, Config{StoreTable: "form_submission"})
	if err := r.Execute(context.Background(), "login", nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}
