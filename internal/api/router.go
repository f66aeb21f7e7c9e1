package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/wishlist/account-service/docs"
	"github.com/wishlist/account-service/internal/api/handler"
	"github.com/wishlist/account-service/internal/api/middleware"
	"github.com/wishlist/account-service/internal/core/domain"
	"github.com/wishlist/account-service/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Auth   ports.AuthService
	Admin  ports.AdminService
	Gate   middleware.Authorizer
	Health *handler.HealthHandler
	Log    zerolog.Logger

	// TokenHeader names the header carrying the access token.
	TokenHeader string

	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	if deps.TokenHeader == "" {
		deps.TokenHeader = echo.HeaderAuthorization
	}
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "account",
		Subsystem:  "http",
		Registerer: deps.Registerer,
	}))

	authHandler := handler.NewAuthHandler(deps.Auth)
	adminHandler := handler.NewAdminHandler(deps.Admin)
	eventHandler := handler.NewEventHandler(deps.Admin)
	requireToken := middleware.Auth(deps.TokenHeader)

	// --- User routes ---
	users := e.Group("/v1/users")
	users.POST("/signup", authHandler.SignUp)
	users.POST("/login", authHandler.Login)
	users.POST("/logout", authHandler.Logout, requireToken)

	me := users.Group("/me", requireToken, middleware.RequireValidToken(deps.Gate))
	me.PUT("", authHandler.UpdateProfile)
	me.DELETE("", authHandler.DeleteAccount)
	me.PATCH("/password", authHandler.ChangePassword)

	// --- Admin routes ---
	e.POST("/v1/admin/login", authHandler.AdminLogin)

	admin := e.Group("/v1/admin/users", requireToken, middleware.RequireRole(deps.Gate, domain.RoleAdmin))
	admin.GET("", adminHandler.List)
	admin.POST("", adminHandler.Create)
	admin.PUT("/:username", adminHandler.Update)
	admin.DELETE("/:username", adminHandler.Delete)
	admin.GET("/:username/events", eventHandler.List)

	// --- Operational routes (no auth required) ---
	if deps.Health != nil {
		e.GET("/health", deps.Health.Liveness)        // liveness  – is the process alive?
		e.GET("/health/ready", deps.Health.Readiness) // readiness – are dependencies up?
	}
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request. Tokens are never logged.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
