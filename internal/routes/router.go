package routes

import (
	"net/http"
	"time"

	"grindhouse/scoreboard/internal/api"
	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(deps *api.Dependencies, upSince time.Time) http.Handler {
	cfg := deps.Config

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.RespondAppError(w, time.Now(), common.NewNotFound(constants.MsgRouteNotFound))
	})

	handlers := api.NewHandlers(deps)

	// The websocket upgrade hijacks the connection, so it stays clear of the
	// timeout and response recording middleware.
	r.Get("/ws", handlers.ServeWS())

	r.Group(func(r chi.Router) {
		r.Use(middleware.MetricsMiddleware(deps.Metrics))
		r.Use(chimw.Timeout(cfg.RequestTimeout))

		r.Get("/healthCheck", handlers.HealthCheck(upSince))
		r.Handle("/metrics", promhttp.Handler())

		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, "127.0.0.1")
		RegisterAPIRoutes(r, handlers, limiter)
	})

	logging.Info("Router initialized", "cors_origins", cfg.CORSOrigins, "request_timeout", cfg.RequestTimeout.String())
	return r
}
