// Package api provides the HTTP surface of the node control API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/fleetnode/fleetnode/internal/api/handler"
	"github.com/fleetnode/fleetnode/internal/api/middleware"
	"github.com/fleetnode/fleetnode/internal/api/response"
	"github.com/fleetnode/fleetnode/internal/auth"
	"github.com/fleetnode/fleetnode/internal/param"
	"github.com/fleetnode/fleetnode/internal/supervisor"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger     zerolog.Logger
	Supervisor *supervisor.Supervisor

	// Store is optional; when set, the health endpoint reports the
	// parameter store's circuit breaker state.
	Store *param.ResilientStore

	// Metrics is optional; nil disables HTTP metrics.
	Metrics *middleware.Metrics

	// Tokens is optional; when set, mutating endpoints require a Bearer
	// operator token.
	Tokens *auth.TokenService
}

// NewRouter creates the chi router for the node control API.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Order matters: request ID first so everything downstream can tag
	// its output with it.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no such resource")
	})

	nodeHandler := handler.NewNodeHandler(cfg.Supervisor, cfg.Store, cfg.Logger)

	controlRateLimit := middleware.RateLimitByIP(middleware.ControlRateLimit)
	readRateLimit := middleware.RateLimitByIP(middleware.ReadRateLimit)

	r.Route("/v1/node", func(r chi.Router) {
		r.With(readRateLimit).Get("/health", nodeHandler.Status)
		r.With(readRateLimit).Get("/parameters", nodeHandler.ListParameters)

		r.Group(func(r chi.Router) {
			r.Use(controlRateLimit)
			r.Use(middleware.RequireJSON)
			if cfg.Tokens != nil {
				r.Use(middleware.Auth(cfg.Tokens))
			}
			r.Post("/switch", nodeHandler.Switch)
			r.Post("/parameters/refresh", nodeHandler.RefreshParameter)
		})
	})

	return r
}
