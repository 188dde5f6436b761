package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/atomic"
)

// TestMetrics_Endpoint_Returns200 verifies /metrics serves the Prometheus
// text format
func TestMetrics_Endpoint_Returns200(t *testing.T) {
	e := echo.New()

	e.Use(echoprometheus.NewMiddleware("pushrelay"))
	e.GET("/metrics", echoprometheus.NewHandler())

	e.GET("/test", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Make a request to generate metrics
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200 OK, got %d", rec.Code)
	}

	contentType := rec.Header().Get("Content-Type")
	if !strings.Contains(contentType, "text/plain") {
		t.Errorf("expected Content-Type text/plain, got %q", contentType)
	}

	if rec.Body.Len() == 0 {
		t.Error("expected metrics in response body, got empty")
	}
}

// TestMetrics_QueueDepth_Updates verifies the backlog gauge is exported
// under the pushrelay namespace and reflects Set calls
func TestMetrics_QueueDepth_Updates(t *testing.T) {
	QueueDepthGauge.Set(0)

	e := echo.New()
	e.GET("/metrics", echoprometheus.NewHandler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "pushrelay_transfer_queue_depth") {
		t.Error("expected pushrelay_transfer_queue_depth metric, not found")
	}

	QueueDepthGauge.Set(5)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "pushrelay_transfer_queue_depth 5") {
		t.Logf("Metrics output:\n%s", rec.Body.String())
		t.Error("expected queue depth gauge to show value 5")
	}

	QueueDepthGauge.Set(0)
}

// TestMetrics_TransferCounters_Registered verifies the transfer outcome
// counters exist in the registry
func TestMetrics_TransferCounters_Registered(t *testing.T) {
	TransfersSucceededCounter.Add(0)
	TransfersFailedCounter.Add(0)

	e := echo.New()
	e.GET("/metrics", echoprometheus.NewHandler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "pushrelay_transfers_succeeded_total") {
		t.Error("expected pushrelay_transfers_succeeded_total metric, not found")
	}
	if !strings.Contains(body, "pushrelay_transfers_failed_total") {
		t.Error("expected pushrelay_transfers_failed_total metric, not found")
	}
	if !strings.Contains(body, "pushrelay_active_transfer_workers") {
		t.Error("expected pushrelay_active_transfer_workers metric, not found")
	}
}

// TestMetrics_Accessible_DuringShutdown verifies the readiness middleware
// keeps /metrics reachable while other traffic is rejected
func TestMetrics_Accessible_DuringShutdown(t *testing.T) {
	e := echo.New()
	readiness := atomic.NewBool(false) // simulate shutdown state

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !readiness.Load() {
				p := c.Request().URL.Path
				if p != "/healthz" && p != "/readyz" && p != "/metrics" {
					return c.NoContent(http.StatusServiceUnavailable)
				}
			}
			return next(c)
		}
	})

	e.GET("/metrics", func(c echo.Context) error {
		return c.String(http.StatusOK, "metrics")
	})
	e.POST("/v1/push", func(c echo.Context) error {
		return c.NoContent(http.StatusAccepted)
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected /metrics to return 200 during shutdown, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/push", strings.NewReader("test"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected /v1/push to return 503 during shutdown, got %d", rec.Code)
	}
}
