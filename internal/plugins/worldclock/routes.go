package worldclock

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/timekeeper/internal/plugins/apikeys"
)

// RegisterRoutes adds the clock endpoints to a world-scoped API group.
// Reads require the "read" permission; mutations require "write".
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/clock", h.GetClock, apikeys.RequirePermission(apikeys.PermRead))
	g.GET("/clock/date", h.GetCurrentDate, apikeys.RequirePermission(apikeys.PermRead))

	g.PUT("/clock/time", h.SetTime, apikeys.RequirePermission(apikeys.PermWrite))
	g.PUT("/clock/date", h.SetDate, apikeys.RequirePermission(apikeys.PermWrite))
	g.POST("/clock/advance", h.Advance, apikeys.RequirePermission(apikeys.PermWrite))
	g.PUT("/clock/calendar", h.SetCalendar, apikeys.RequirePermission(apikeys.PermWrite))
}
