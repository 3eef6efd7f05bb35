// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"planner/config"
	"planner/internal/auth"
	"planner/internal/delivery/api/router/handler"
	"planner/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler  *handler.AuthHandler
	ProbeHandler *handler.ProbeHandler
	Adapter      auth.Adapter
	Metrics      *metrics.Collector `optional:"true"`
	Config       *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler  *handler.AuthHandler
	probeHandler *handler.ProbeHandler
	adapter      auth.Adapter
	metrics      *metrics.Collector
	config       *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:  params.AuthHandler,
		probeHandler: params.ProbeHandler,
		adapter:      params.Adapter,
		metrics:      params.Metrics,
		config:       params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", r.probeHandler.Health)

	if r.metrics != nil && r.config.Metrics != nil && r.config.Metrics.Enabled {
		path := r.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(r.metrics.Handler()))
	}

	guard := r.adapter.Guard()

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/logout", r.authHandler.Logout)
		authGroup.GET("/me", r.authHandler.Me, guard)
	}

	// Every route under /api requires an authenticated principal.
	apiGroup := e.Group("/api")
	apiGroup.Use(guard)
	{
		apiGroup.GET("/ping", r.probeHandler.Ping)
	}
}
