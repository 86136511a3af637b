package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "blogapi/internal/errors"
	"blogapi/internal/service"
)

// UserHandler serves user profiles.
type UserHandler struct {
	svc service.UserService
	log *zap.Logger
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// Profile godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security CookieAuth
// @Success 200 {object} model.PublicUser
// @Failure 401 {object} errors.ErrorResponse
// @Router /profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	identity := identityFrom(c)
	if identity.IsZero() {
		return errorResponse(c, h.log, apperrors.ErrUnauthenticated)
	}

	profile, err := h.svc.GetProfile(c.Request().Context(), identity.UserID)
	if err != nil {
		// a valid token for a user that no longer resolves is not a session
		if errors.Is(err, apperrors.ErrNotFound) {
			return errorResponse(c, h.log, apperrors.ErrUnauthenticated)
		}
		return errorResponse(c, h.log, err)
	}
	return c.JSON(http.StatusOK, profile)
}
