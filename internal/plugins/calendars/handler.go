package calendars

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/timekeeper/internal/apperror"
)

// maxDocumentBytes caps the size of a submitted calendar document.
const maxDocumentBytes = 1 << 20 // 1 MiB

// Handler serves the calendar definition and conversion endpoints.
type Handler struct {
	service CalendarService
}

// NewHandler creates a new calendars handler.
func NewHandler(service CalendarService) *Handler {
	return &Handler{service: service}
}

// ListResolved returns the resolved calendar set for a world.
// GET /api/v1/worlds/:id/calendars
func (h *Handler) ListResolved(c echo.Context) error {
	set, err := h.service.ListResolved(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":     set.Calendars,
		"total":    len(set.Calendars),
		"defaults": set.Defaults,
	})
}

// GetResolved returns one resolved calendar. A bare base id redirects to the
// default variant when one is marked.
// GET /api/v1/worlds/:id/calendars/:calID
func (h *Handler) GetResolved(c echo.Context) error {
	def, err := h.service.GetResolved(c.Request().Context(), c.Param("id"), c.Param("calID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, def)
}

// GetDefinition returns the raw stored document for one calendar.
// GET /api/v1/worlds/:id/calendars/:calID/definition
func (h *Handler) GetDefinition(c echo.Context) error {
	cal, err := h.service.GetDefinition(c.Request().Context(), c.Param("id"), c.Param("calID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// PutDefinition stores a calendar definition document.
// PUT /api/v1/worlds/:id/calendars/:calID
func (h *Handler) PutDefinition(c echo.Context) error {
	document, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDocumentBytes+1))
	if err != nil {
		return apperror.NewBadRequest("reading request body failed")
	}
	if len(document) > maxDocumentBytes {
		return apperror.NewBadRequest("calendar document too large")
	}

	// The document's id must match the URL so a PUT can't silently create a
	// calendar under a different id.
	var idProbe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(document, &idProbe); err != nil {
		return apperror.NewBadRequest("invalid calendar document")
	}
	if idProbe.ID != c.Param("calID") {
		return apperror.NewBadRequest("document id does not match URL")
	}

	def, err := h.service.PutDefinition(c.Request().Context(), c.Param("id"), document)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, def)
}

// DeleteDefinition removes a stored calendar definition.
// DELETE /api/v1/worlds/:id/calendars/:calID
func (h *Handler) DeleteDefinition(c echo.Context) error {
	if err := h.service.DeleteDefinition(c.Request().Context(), c.Param("id"), c.Param("calID")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetDate decomposes a world time under one calendar.
// GET /api/v1/worlds/:id/calendars/:calID/date?world_time=N
func (h *Handler) GetDate(c echo.Context) error {
	raw := c.QueryParam("world_time")
	if raw == "" {
		return apperror.NewBadRequest("world_time query parameter is required")
	}
	worldTime, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return apperror.NewBadRequest("world_time must be an integer")
	}

	result, err := h.service.WorldTimeToDate(c.Request().Context(), c.Param("id"), c.Param("calID"), worldTime)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// PostWorldTime converts a structured date to world time.
// POST /api/v1/worlds/:id/calendars/:calID/world-time
func (h *Handler) PostWorldTime(c echo.Context) error {
	var req DateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid date payload")
	}

	result, err := h.service.DateToWorldTime(c.Request().Context(), c.Param("id"), c.Param("calID"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// PostFormat renders a date with a named or inline template.
// POST /api/v1/worlds/:id/calendars/:calID/format
func (h *Handler) PostFormat(c echo.Context) error {
	var req FormatRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid format payload")
	}

	result, err := h.service.FormatDate(c.Request().Context(), c.Param("id"), c.Param("calID"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
