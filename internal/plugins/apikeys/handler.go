package apikeys

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/timekeeper/internal/apperror"
)

// Handler serves the admin key-management endpoints.
type Handler struct {
	service KeyService
}

// NewHandler creates a new apikeys handler.
func NewHandler(service KeyService) *Handler {
	return &Handler{service: service}
}

// CreateKey creates a new API key. The plaintext key is returned once.
// POST /api/v1/admin/keys
func (h *Handler) CreateKey(c echo.Context) error {
	var input CreateKeyInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid key payload")
	}

	result, err := h.service.CreateKey(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// ListKeys returns all keys for a world.
// GET /api/v1/admin/keys?world_id=W
func (h *Handler) ListKeys(c echo.Context) error {
	worldID := c.QueryParam("world_id")
	if worldID == "" {
		return apperror.NewBadRequest("world_id query parameter is required")
	}

	keys, err := h.service.ListKeysByWorld(c.Request().Context(), worldID)
	if err != nil {
		return err
	}
	if keys == nil {
		keys = []APIKey{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":  keys,
		"total": len(keys),
	})
}

// ToggleKey flips a key between active and inactive.
// PUT /api/v1/admin/keys/:keyID/toggle
func (h *Handler) ToggleKey(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("keyID"))
	if err != nil {
		return apperror.NewBadRequest("invalid key ID")
	}

	ctx := c.Request().Context()
	key, err := h.service.GetKey(ctx, id)
	if err != nil {
		return err
	}

	if key.IsActive {
		err = h.service.DeactivateKey(ctx, id)
	} else {
		err = h.service.ActivateKey(ctx, id)
	}
	if err != nil {
		return err
	}

	key.IsActive = !key.IsActive
	return c.JSON(http.StatusOK, key)
}

// RevokeKey permanently deletes a key.
// DELETE /api/v1/admin/keys/:keyID
func (h *Handler) RevokeKey(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("keyID"))
	if err != nil {
		return apperror.NewBadRequest("invalid key ID")
	}
	if _, err := h.service.GetKey(c.Request().Context(), id); err != nil {
		return err
	}
	if err := h.service.RevokeKey(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
