package push

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"pushrelay/internal/poster"
	"pushrelay/pkg/logger"
)

// PushHandler accepts relay payloads and hands them to the async poster.
// The upstream target is fixed at startup; callers only supply bytes.
type PushHandler struct {
	upstreamURL string
	poster      poster.Poster
	syncPush    bool
}

// NewPushHandler creates a new PushHandler
// upstreamURL: destination the payloads are pushed to
// poster: async transfer facade
// syncPush: when true, /v1/push waits for the upstream outcome and relays it
func NewPushHandler(upstreamURL string, poster poster.Poster, syncPush bool) *PushHandler {
	return &PushHandler{
		upstreamURL: upstreamURL,
		poster:      poster,
		syncPush:    syncPush,
	}
}

// HandlePush handles POST /v1/push
// Buffers the request body, schedules one transfer, and either returns 202
// immediately (default) or waits for the future and relays the outcome
// (sync_push_debug). Scheduling rejection is the only synchronous failure
// and maps to 503.
func (h *PushHandler) HandlePush(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		logger.Error("Failed to read request body: %v", err)
		return c.NoContent(http.StatusBadRequest)
	}

	future, err := h.poster.PostAsync(h.upstreamURL, body)
	if err != nil {
		logger.Warn("Push rejected: %v", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}

	if !h.syncPush {
		// Fire-and-forget: the worker still resolves the future; log the
		// eventual outcome for operational visibility.
		go func() {
			if _, err := future.Wait(context.Background()); err != nil {
				logger.Warn("Push to %s failed: %v", h.upstreamURL, err)
			}
		}()
		return c.NoContent(http.StatusAccepted)
	}

	respBody, err := future.Wait(c.Request().Context())
	if err != nil {
		logger.Error("Push to %s failed: %v", h.upstreamURL, err)
		return c.String(http.StatusBadGateway, err.Error())
	}
	return c.Blob(http.StatusOK, "application/octet-stream", respBody)
}
