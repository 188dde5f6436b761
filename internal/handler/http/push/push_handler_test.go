package push

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"pushrelay/internal/transfer"
)

// fakePoster resolves every submission with a canned outcome, or rejects
// all submissions synchronously.
type fakePoster struct {
	outcome   transfer.Outcome
	rejectAll bool
	gotURL    string
	gotBody   []byte
}

func (f *fakePoster) Start() {}
func (f *fakePoster) Stop()  {}

func (f *fakePoster) PostAsync(url string, payload []byte) (*transfer.Future, error) {
	if f.rejectAll {
		return nil, errors.New("queue full")
	}
	f.gotURL = url
	f.gotBody = payload
	pending, future := transfer.NewPending()
	pending.Resolve(f.outcome)
	return future, nil
}

func (f *fakePoster) QueueDepth() int { return 0 }

// TestPushHandler_Async_Returns202 verifies the fire-and-forget path
func TestPushHandler_Async_Returns202(t *testing.T) {
	fp := &fakePoster{outcome: transfer.Outcome{Body: []byte("upstream ok")}}
	handler := NewPushHandler("https://collector.internal/v1/ingest", fp, false)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/push", strings.NewReader("metric payload"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.HandlePush(c); err != nil {
		t.Fatalf("HandlePush returned error: %v", err)
	}

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected status 202 Accepted, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %d bytes", rec.Body.Len())
	}
	if fp.gotURL != "https://collector.internal/v1/ingest" {
		t.Errorf("poster received URL %q", fp.gotURL)
	}
	if string(fp.gotBody) != "metric payload" {
		t.Errorf("poster received body %q", fp.gotBody)
	}
}

// TestPushHandler_Sync_RelaysUpstreamBody verifies sync mode waits for the
// future and returns the upstream response
func TestPushHandler_Sync_RelaysUpstreamBody(t *testing.T) {
	fp := &fakePoster{outcome: transfer.Outcome{Body: []byte("upstream body")}}
	handler := NewPushHandler("https://collector.internal/v1/ingest", fp, true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/push", strings.NewReader("data"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.HandlePush(c); err != nil {
		t.Fatalf("HandlePush returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "upstream body" {
		t.Errorf("expected relayed body %q, got %q", "upstream body", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("expected octet-stream response, got %q", ct)
	}
}

// TestPushHandler_Sync_UpstreamFailure_Returns502 verifies sync mode maps
// transfer failures to a gateway error carrying the diagnostic
func TestPushHandler_Sync_UpstreamFailure_Returns502(t *testing.T) {
	fp := &fakePoster{outcome: transfer.Outcome{
		Err: &transfer.Error{Kind: transfer.KindOperationFailed, Message: "unexpected http status code from server: 404"},
	}}
	handler := NewPushHandler("https://collector.internal/v1/ingest", fp, true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/push", strings.NewReader("data"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.HandlePush(c); err != nil {
		t.Fatalf("HandlePush returned error: %v", err)
	}

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "404") {
		t.Errorf("expected diagnostic naming the status code, got %q", rec.Body.String())
	}
}

// TestPushHandler_SchedulingRejection_Returns503 verifies the synchronous
// submission failure surface
func TestPushHandler_SchedulingRejection_Returns503(t *testing.T) {
	fp := &fakePoster{rejectAll: true}
	handler := NewPushHandler("https://collector.internal/v1/ingest", fp, false)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/push", strings.NewReader("data"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.HandlePush(c); err != nil {
		t.Fatalf("HandlePush returned error: %v", err)
	}

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}

// TestPushHandler_SetupRoutes verifies route registration
func TestPushHandler_SetupRoutes(t *testing.T) {
	fp := &fakePoster{outcome: transfer.Outcome{Body: []byte("ok")}}
	handler := NewPushHandler("https://collector.internal/v1/ingest", fp, false)

	e := echo.New()
	handler.SetupRoutes(e)

	req := httptest.NewRequest(http.MethodPost, "/v1/push", strings.NewReader("data"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected /v1/push to return 202, got %d", rec.Code)
	}
}
