package router

import (
	"net/http"
	"path"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"blogapi/internal/auth"
	"blogapi/internal/config"
	apperrors "blogapi/internal/errors"
	"blogapi/internal/handler"
	"blogapi/internal/logging"
)

// Authenticator resolves a raw session token into an identity.
type Authenticator interface {
	Authenticate(token string) (auth.Identity, error)
}

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth *handler.AuthHandler
	User *handler.UserHandler
	Post *handler.PostHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, guard Authenticator, h Handlers, log *zap.Logger) {
	e.HTTPErrorHandler = errorHandler(e, log)

	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowCredentials: true,
	}))
	if cfg.UploadMaxSize != "" {
		e.Use(middleware.BodyLimit(cfg.UploadMaxSize))
	}

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if cfg.UploadDir != "" && (cfg.UploadBackend == "" || cfg.UploadBackend == config.UploadBackendLocal) {
		// local handles are the slash form of the upload path, so they double as URLs
		e.Static(path.Join("/", filepath.ToSlash(cfg.UploadDir)), cfg.UploadDir)
	}

	api := e.Group("/api")

	// Public routes
	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)
	api.POST("/logout", h.Auth.Logout)
	api.GET("/posts", h.Post.ListPosts)
	api.GET("/post/:id", h.Post.GetPost)

	// Secured routes (require a session cookie or bearer token)
	secured := api.Group("", RequireIdentity(guard))
	secured.GET("/profile", h.User.Profile)
	secured.POST("/post", h.Post.CreatePost)
	secured.PUT("/post/:id", h.Post.UpdatePost)
}

// RequireIdentity rejects requests without a valid session token and stores the
// verified auth.Identity under handler.IdentityContextKey.
func RequireIdentity(guard Authenticator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + auth.CookieName + ",header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  handler.IdentityContextKey,
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			return guard.Authenticate(token)
		},
		// missing and invalid tokens look the same to the caller
		ErrorHandler: func(_ echo.Context, _ error) error {
			httpErr := apperrors.MapErrorToHTTP(apperrors.ErrUnauthenticated)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	})
}

// errorHandler renders every error as an ErrorResponse body. Errors that are not
// HTTP errors, such as recovered panics, are mapped and logged with the cause.
func errorHandler(e *echo.Echo, log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		he, ok := err.(*echo.HTTPError)
		if !ok {
			httpErr := apperrors.MapErrorToHTTP(err)
			if httpErr.Internal() {
				log.Error("request failed",
					zap.String("method", c.Request().Method),
					zap.String("path", c.Path()),
					zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
					zap.Error(err),
				)
			}
			he = echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		} else if _, typed := he.Message.(apperrors.ErrorResponse); !typed {
			he = echo.NewHTTPError(he.Code, apperrors.ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  statusCode(he.Code),
			})
		}
		e.DefaultHTTPErrorHandler(he, c)
	}
}

func statusCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	default:
		return "INTERNAL_ERROR"
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
