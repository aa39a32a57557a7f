package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

func TestLogging(t *testing.T) {
	t.Run("Logs Denied Requests With Their Real Status", func(t *testing.T) {
		f := newGateFixture(t)
		accountID := f.addAccount(domain.TierFree)
		f.usage.Interns = 5

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := Logging(logger)(f.gate.Handler(okHandler()))

		req := httptest.NewRequest(http.MethodPost, "/api/mentorship/interns", nil)
		req.Header.Set("Authorization", bearerFor(t, accountID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}

		var line struct {
			Msg       string `json:"msg"`
			Status    int    `json:"status"`
			AccountID string `json:"account_id"`
			Tier      string `json:"tier"`
		}
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("failed to decode log line: %v", err)
		}
		if line.Msg != "handled request" {
			t.Errorf("unexpected log message %q", line.Msg)
		}
		if line.Status != http.StatusForbidden {
			t.Errorf("expected the log line to carry 403, got %d", line.Status)
		}
		if line.AccountID != accountID.String() || line.Tier != string(domain.TierFree) {
			t.Errorf("expected the resolved account in the log line, got %+v", line)
		}
	})

	t.Run("Logs Rate Limited Requests", func(t *testing.T) {
		f := newGateFixture(t)
		accountID := f.addAccount(domain.TierFree)

		minuteKey := "rate_limit:" + accountID.String() + ":minute:" + time.Now().Truncate(time.Minute).Format("200601021504")
		f.counters.Counts = map[string]int64{minuteKey: 30}

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := Logging(logger)(f.gate.Handler(okHandler()))

		req := httptest.NewRequest(http.MethodGet, "/api/freemium/validate", nil)
		req.Header.Set("Authorization", bearerFor(t, accountID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}

		var line struct {
			Status int    `json:"status"`
			Tier   string `json:"tier"`
		}
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("failed to decode log line: %v", err)
		}
		if line.Status != http.StatusTooManyRequests {
			t.Errorf("expected the log line to carry 429, got %d", line.Status)
		}
		if line.Tier != string(domain.TierFree) {
			t.Errorf("expected tier free in the log line, got %q", line.Tier)
		}
	})

	t.Run("Anonymous Request Has No Account Attrs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := Logging(logger)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if bytes.Contains(buf.Bytes(), []byte("account_id")) {
			t.Error("expected no account attrs for an unidentified request")
		}
	})
}
