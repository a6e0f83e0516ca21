package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/timekeeper/internal/plugins/apikeys"
	"github.com/keyxmakerx/timekeeper/internal/plugins/calendars"
	"github.com/keyxmakerx/timekeeper/internal/plugins/worldclock"
)

// RegisterRoutes sets up all application routes. It wires each plugin's
// repository, service, and handler, then delegates to the plugin's route
// registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		if err := a.DB.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unreachable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Plugin Wiring ---

	keySvc := apikeys.NewKeyService(apikeys.NewKeyRepository(a.DB), a.Config.API.RateLimit)
	calSvc := calendars.NewCalendarService(calendars.NewCalendarRepository(a.DB), a.Redis, a.Config.Cache.ResolvedTTL)
	clockSvc := worldclock.NewClockService(worldclock.NewClockRepository(a.DB), calSvc)

	// --- Admin Routes ---
	// Key management, guarded by the static admin token.
	apikeys.RegisterAdminRoutes(e, apikeys.NewHandler(keySvc), a.Config.API.AdminToken)

	// --- API Routes ---
	// World-scoped endpoints with key auth, rate limiting, and world match
	// enforcement.
	worlds := e.Group("/api/v1/worlds/:id",
		apikeys.RequireAPIKey(keySvc),
		apikeys.RateLimit(),
		apikeys.RequireWorldMatch(),
	)

	calendars.RegisterRoutes(worlds, calendars.NewHandler(calSvc))
	worldclock.RegisterRoutes(worlds, worldclock.NewHandler(clockSvc))
}
