package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/pricewatch/console-auth/docs"
	"github.com/pricewatch/console-auth/internal/api/handler"
	"github.com/pricewatch/console-auth/internal/api/middleware"
	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
)

// Dependencies carries everything the HTTP layer needs. Registerer and
// Gatherer default to the global Prometheus registry.
type Dependencies struct {
	Sessions   ports.SessionService
	Tokens     ports.TokenIssuer
	Checks     map[string]handler.DependencyCheck
	Log        zerolog.Logger
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "console_auth",
		Registerer: deps.Registerer,
	}))

	sessions := handler.NewSessionHandler(deps.Sessions)
	auth := middleware.Auth(deps.Tokens)
	adminOnly := middleware.RequireKind(domain.KindAdmin)

	// --- Session routes ---
	v1 := e.Group("/v1")
	v1.POST("/sessions/login", sessions.Login)
	v1.POST("/sessions/refresh", sessions.Refresh)
	v1.DELETE("/sessions", sessions.Logout, auth)

	// --- Actor routes ---
	v1.POST("/operatives", sessions.RegisterOperative)
	v1.POST("/admins", sessions.RegisterAdmin, auth, adminOnly)
	v1.POST("/actors/:kind/:id/disable", sessions.Disable, auth, adminOnly)
	v1.POST("/actors/:kind/:id/enable", sessions.Enable, auth, adminOnly)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
