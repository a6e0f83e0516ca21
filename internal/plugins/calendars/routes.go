package calendars

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/timekeeper/internal/plugins/apikeys"
)

// RegisterRoutes adds the calendar endpoints to a world-scoped API group.
// Reads require the "read" permission; definition writes require "write".
func RegisterRoutes(g *echo.Group, h *Handler) {
	// Resolved calendars and conversions.
	g.GET("/calendars", h.ListResolved, apikeys.RequirePermission(apikeys.PermRead))
	g.GET("/calendars/:calID", h.GetResolved, apikeys.RequirePermission(apikeys.PermRead))
	g.GET("/calendars/:calID/definition", h.GetDefinition, apikeys.RequirePermission(apikeys.PermRead))
	g.GET("/calendars/:calID/date", h.GetDate, apikeys.RequirePermission(apikeys.PermRead))
	g.POST("/calendars/:calID/world-time", h.PostWorldTime, apikeys.RequirePermission(apikeys.PermRead))
	g.POST("/calendars/:calID/format", h.PostFormat, apikeys.RequirePermission(apikeys.PermRead))

	// Definition management.
	g.PUT("/calendars/:calID", h.PutDefinition, apikeys.RequirePermission(apikeys.PermWrite))
	g.DELETE("/calendars/:calID", h.DeleteDefinition, apikeys.RequirePermission(apikeys.PermWrite))
}
