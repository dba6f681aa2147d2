package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fitgoalz/fitgoalz/internal/middleware"
	"github.com/fitgoalz/fitgoalz/internal/stub"
)

// RouterConfig holds everything the stub router needs.
type RouterConfig struct {
	Store    *stub.Store
	Secret   string
	TokenTTL time.Duration
	// Prefix is the normalized API path prefix ("" or "/api").
	Prefix       string
	CORSOrigins  []string
	MaxBodyBytes int64
	// Registry receives the HTTP metrics and backs GET /metrics.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// NewRouter configures the chi router with all routes and middleware.
// Health and metrics endpoints stay at the root; the API lives under Prefix.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("router: store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	httpMetrics, err := middleware.NewHTTPMetrics(cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("router: register metrics: %w", err)
	}

	h := New(cfg.Store, cfg.Secret, cfg.TokenTTL, cfg.Logger)
	healthHandler := NewHealthHandler(map[string]HealthChecker{"store": cfg.Store})

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(httpMetrics.Middleware)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	authCfg := middleware.AuthConfig{
		Logger: cfg.Logger,
		Secret: cfg.Secret,
	}

	api := func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			r.Get("/auth/me", h.Me)
			r.Get("/fitness-profile", h.GetProfile)
			r.Post("/fitness-profile", h.SaveProfile)
			r.Get("/fitness-stats", h.Stats)
			r.Post("/generate-workout", h.GenerateWorkout)
			r.Post("/log-workout", h.LogWorkout)
			r.Get("/my-workouts", h.ListWorkouts)
			r.Get("/progress-analytics", h.ProgressAnalytics)
			r.Get("/workout-details/{id}", h.WorkoutDetails)
		})
	}

	if cfg.Prefix == "" {
		api(r)
	} else {
		r.Route(cfg.Prefix, api)
	}

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r, nil
}
