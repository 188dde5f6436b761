package push

import (
	"github.com/labstack/echo/v4"
)

// SetupRoutes registers the relay route with the Echo instance, keeping
// route registration separate from handler logic
func (h *PushHandler) SetupRoutes(e *echo.Echo) {
	e.POST("/v1/push", h.HandlePush)
}
