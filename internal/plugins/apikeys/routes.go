package apikeys

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/timekeeper/internal/middleware"
)

// RegisterAdminRoutes adds the key-management endpoints. All routes are
// guarded by the static admin token, with a per-IP rate limit in front so
// the token cannot be brute-forced.
func RegisterAdminRoutes(e *echo.Echo, h *Handler, adminToken string) {
	g := e.Group("/api/v1/admin/keys",
		middleware.RateLimit(30, time.Minute),
		RequireAdmin(adminToken),
	)

	g.POST("", h.CreateKey)
	g.GET("", h.ListKeys)
	g.PUT("/:keyID/toggle", h.ToggleKey)
	g.DELETE("/:keyID", h.RevokeKey)
}
