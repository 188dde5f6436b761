// Package transfer turns one in-memory payload into one blocking HTTP POST
// and a terminal Outcome. The orchestrator runs entirely on the worker
// goroutine that calls it; the Pending/Future pair hands the outcome back
// across the scheduling hop.
package transfer

import (
	"io"
	"net/http"
	"net/url"

	"pushrelay/internal/engine"
	"pushrelay/pkg/logger"
)

// Orchestrator runs single POST transfers over an initialized engine.
// allowInsecureHTTP is the narrowly-scoped test-mode relaxation permitting
// plain http targets; it must never be enabled in production configs.
type Orchestrator struct {
	engine            *engine.Manager
	allowInsecureHTTP bool
	maxResponseBytes  int
}

// NewOrchestrator builds an orchestrator over eng. maxResponseBytes bounds
// the response body the buffer will accept; 0 means unlimited.
func NewOrchestrator(eng *engine.Manager, allowInsecureHTTP bool, maxResponseBytes int) *Orchestrator {
	return &Orchestrator{
		engine:            eng,
		allowInsecureHTTP: allowInsecureHTTP,
		maxResponseBytes:  maxResponseBytes,
	}
}

// Do performs exactly one POST of payload to rawURL and returns its
// Outcome. It blocks for the full exchange and never panics: any fault
// raised below this boundary is recovered and converted, so nothing
// escapes onto the worker's caller.
func (o *Orchestrator) Do(rawURL string, payload []byte) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Transfer fault recovered: %v", r)
			out = Outcome{Err: newError(KindInternalFault, nil, "unexpected fault during transfer: %v", r)}
		}
	}()
	return o.do(rawURL, payload)
}

func (o *Orchestrator) do(rawURL string, payload []byte) Outcome {
	if err := o.checkScheme(rawURL); err != nil {
		return Outcome{Err: err}
	}

	client, err := o.engine.Acquire()
	if err != nil {
		return Outcome{Err: newError(KindInitialization, err, "acquiring transfer handle: %v", err)}
	}

	cursor := NewCursor(payload)
	var body io.Reader = cursor
	if cursor.Remaining() == 0 {
		// NoBody makes the transport send Content-Length: 0 instead of
		// switching to chunked encoding for an unknown-length reader.
		body = http.NoBody
	}
	req, err := http.NewRequest(http.MethodPost, rawURL, body)
	if err != nil {
		return Outcome{Err: newError(KindOperationFailed, err, "building request for %s: %v", rawURL, err)}
	}
	req.ContentLength = int64(cursor.Remaining())
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/octet-stream")
	// Empty Expect suppresses the 100 Continue handshake.
	req.Header.Set("Expect", "")

	logger.Debug("Transfer start: url=%s, payload=%d bytes", rawURL, len(payload))

	resp, err := client.Do(req)
	if err != nil {
		return Outcome{Err: newError(KindOperationFailed, err, "bad HTTP response from API server: %v", err)}
	}
	defer resp.Body.Close()

	buf := NewBuffer(o.maxResponseBytes)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return Outcome{Err: newError(KindOperationFailed, err, "reading response from API server: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return Outcome{Err: newError(KindOperationFailed, nil, "unexpected http status code from server: %d", resp.StatusCode)}
	}

	logger.Debug("Transfer done: url=%s, response=%d bytes", rawURL, buf.Len())
	return Outcome{Body: buf.Bytes()}
}

// checkScheme enforces the protocol policy: https always, http only when
// the test-mode relaxation is active, nothing else ever.
func (o *Orchestrator) checkScheme(rawURL string) *Error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return newError(KindOperationFailed, err, "invalid target URL %q: %v", rawURL, err)
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if o.allowInsecureHTTP {
			return nil
		}
		return newError(KindOperationFailed, nil, "protocol %q not permitted for %s", u.Scheme, rawURL)
	default:
		return newError(KindOperationFailed, nil, "protocol %q not permitted for %s", u.Scheme, rawURL)
	}
}

// Cursor feeds the request body, Buffer drains the response.
var (
	_ io.Reader = (*Cursor)(nil)
	_ io.Writer = (*Buffer)(nil)
)
