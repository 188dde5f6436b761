package health

import (
	"github.com/labstack/echo/v4"
)

// SetupRoutes registers the liveness and readiness probes with the Echo
// instance, keeping route registration separate from handler logic
func (h *HealthHandler) SetupRoutes(e *echo.Echo) {
	e.GET("/healthz", h.HandleLiveness)
	e.GET("/readyz", h.HandleReadiness)
}
