// Package api provides the HTTP API for VoltGrid.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/voltgrid/voltgrid/internal/api/handler"
	"github.com/voltgrid/voltgrid/internal/api/middleware"
	"github.com/voltgrid/voltgrid/internal/auth"
	"github.com/voltgrid/voltgrid/internal/reservation"
	"github.com/voltgrid/voltgrid/internal/station"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	DB                 handler.Pinger
	AuthService        *auth.Service
	StationService     *station.Service
	ReservationService *reservation.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "voltgrid-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	stationHandler := handler.NewStationHandler(cfg.StationService)
	reservationHandler := handler.NewReservationHandler(cfg.ReservationService, cfg.StationService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)

	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit) // 10 req/min
	mapRateLimit := middleware.RateLimitByIP(middleware.MapRateLimit)   // 60 req/min
	standardRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(authMiddleware).Get("/me", authHandler.Me)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Station endpoints - map queries are public, writes admin-only
		r.Route("/stations", func(r chi.Router) {
			r.With(mapRateLimit).Get("/nearby", stationHandler.Nearby)
			r.With(mapRateLimit).Get("/closest", stationHandler.Closest)
			r.Get("/{stationID}", stationHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Use(middleware.RequireAdmin)
				r.Post("/", stationHandler.Create)
				r.Post("/{stationID}/chargers", stationHandler.CreateCharger)
			})
		})

		// Reservation endpoints (authenticated) - user-based rate limiting
		r.Route("/reservations", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Post("/", reservationHandler.Create)
			r.Get("/", reservationHandler.List)
			r.Delete("/{reservationID}", reservationHandler.Delete)
		})
	})

	return r
}
