package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/provisioning-service/internal/config"
	"github.com/spec-kit/provisioning-service/internal/domain"
)

func TestRequestIDAssignedAndEchoed(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestID(), RequestLogger(zap.NewNop(), metrics))
	var seen string
	app.Get("/ping", func(c *fiber.Ctx) error {
		seen = RequestIDFromContext(c)
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if seen == "" || resp.Header.Get(RequestIDHeader) != seen {
		t.Fatalf("expected echoed request id, got %q / %q", seen, resp.Header.Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.Header.Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected inbound id reused, got %q", resp.Header.Get(RequestIDHeader))
	}
	if got := metrics.Snapshot().Requests["/ping|GET|204"]; got != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", got)
	}
}

func TestRecordProvisioning(t *testing.T) {
	m := NewMetrics()
	m.RecordProvisioning(domain.RunStatusFailed, "ABORTED", 3*time.Second)
	m.RecordProvisioning(domain.RunStatusFailed, "ABORTED", time.Second)
	snap := m.Snapshot()
	if snap.Runs["FAILED|ABORTED"] != 2 {
		t.Fatalf("unexpected run count %v", snap.Runs)
	}
	if snap.RunSeconds[domain.RunStatusFailed] != 4 {
		t.Fatalf("unexpected duration %v", snap.RunSeconds)
	}

	var nilMetrics *Metrics
	nilMetrics.RecordProvisioning(domain.RunStatusSucceeded, "CLOSED", time.Second)
	if len(nilMetrics.Snapshot().Runs) != 0 {
		t.Fatalf("nil metrics must be a no-op")
	}
}

func TestNewLoggerFallsBackOnBadLevel(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"}, "svc")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !logger.Core().Enabled(zap.InfoLevel) || logger.Core().Enabled(zap.DebugLevel) {
		t.Fatalf("expected info level fallback")
	}
}
