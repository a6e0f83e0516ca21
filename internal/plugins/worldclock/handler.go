package worldclock

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/timekeeper/internal/apperror"
	"github.com/keyxmakerx/timekeeper/internal/plugins/calendars"
)

// Handler serves the world clock endpoints.
type Handler struct {
	service ClockService
}

// NewHandler creates a new worldclock handler.
func NewHandler(service ClockService) *Handler {
	return &Handler{service: service}
}

// GetClock returns the raw clock state.
// GET /api/v1/worlds/:id/clock
func (h *Handler) GetClock(c echo.Context) error {
	clock, err := h.service.GetClock(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clock)
}

// GetCurrentDate returns the clock decomposed under the active calendar.
// GET /api/v1/worlds/:id/clock/date
func (h *Handler) GetCurrentDate(c echo.Context) error {
	result, err := h.service.CurrentDate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// SetTime pins the clock to an absolute world time.
// PUT /api/v1/worlds/:id/clock/time
func (h *Handler) SetTime(c echo.Context) error {
	var req SetTimeRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid time payload")
	}

	result, err := h.service.SetWorldTime(c.Request().Context(), c.Param("id"), req.WorldTime)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// SetDate pins the clock to a structured date.
// PUT /api/v1/worlds/:id/clock/date
func (h *Handler) SetDate(c echo.Context) error {
	var req calendars.DateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid date payload")
	}

	result, err := h.service.SetDate(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Advance moves the clock by a relative amount of seconds and/or days.
// POST /api/v1/worlds/:id/clock/advance
func (h *Handler) Advance(c echo.Context) error {
	var req AdvanceRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid advance payload")
	}

	result, err := h.service.Advance(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// SetCalendar switches the world's active calendar.
// PUT /api/v1/worlds/:id/clock/calendar
func (h *Handler) SetCalendar(c echo.Context) error {
	var req SetCalendarRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid calendar payload")
	}
	if req.CalendarID == "" {
		return apperror.NewBadRequest("calendar_id is required")
	}

	clock, err := h.service.SetActiveCalendar(c.Request().Context(), c.Param("id"), req.CalendarID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clock)
}
