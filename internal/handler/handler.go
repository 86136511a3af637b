package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"blogapi/internal/auth"
	apperrors "blogapi/internal/errors"
)

// IdentityContextKey is where the auth middleware stores the verified auth.Identity.
const IdentityContextKey = "identity"

// identityFrom returns the identity set by the auth middleware, or a zero identity.
func identityFrom(c echo.Context) auth.Identity {
	identity, _ := c.Get(IdentityContextKey).(auth.Identity)
	return identity
}

// errorResponse maps err to its HTTP form. Failures whose detail is hidden from
// the caller are logged here with the full cause.
func errorResponse(c echo.Context, l *zap.Logger, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.Internal() {
		l.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// badRequest is returned for bodies that fail to bind or miss required fields.
func badRequest(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: message,
		Code:  "INVALID_REQUEST",
	})
}
