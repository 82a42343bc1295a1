package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront-catalog/pkg/health"
	"github.com/utafrali/storefront-catalog/pkg/middleware"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/service"
)

// RouterConfig configures the cross-cutting HTTP behaviour.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
	// CacheMaxAge is the public max-age in seconds for catalog reads.
	CacheMaxAge int
	// RequestTimeout bounds read handlers; 0 disables it.
	RequestTimeout time.Duration
	// RefreshAuth validates bearer tokens on the refresh route. The route is
	// not mounted when it is nil.
	RefreshAuth  middleware.TokenValidator
	RefreshRoles []string
	// RefreshRPS and RefreshBurst size the per-client refresh rate limit.
	RefreshRPS   float64
	RefreshBurst int
}

// DefaultRouterConfig returns the configuration used when none is supplied.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		ServiceName:    "catalog",
		CORS:           middleware.DefaultCORSConfig(),
		CacheMaxAge:    60,
		RequestTimeout: 15 * time.Second,
		RefreshRoles:   []string{"admin"},
		RefreshRPS:     0.2,
		RefreshBurst:   3,
	}
}

// NewRouter creates a chi router with all catalog service routes registered.
func NewRouter(
	catalogService *service.CatalogService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(logger, "/health", "/metrics"))
	r.Use(middleware.Tracing(cfg.ServiceName, "/health", "/metrics"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	catalogHandler := NewCatalogHandler(catalogService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5, "application/json"))

		r.Group(func(r chi.Router) {
			if cfg.RequestTimeout > 0 {
				r.Use(chimw.Timeout(cfg.RequestTimeout))
			}
			r.Use(middleware.CacheControl(cfg.CacheMaxAge))

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{id}", catalogHandler.GetProduct)
			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/catalog/stats", catalogHandler.Stats)
		})

		r.Post("/products/{id}/variants/resolve", catalogHandler.ResolveVariant)

		if cfg.RefreshAuth != nil {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cfg.RefreshRPS, cfg.RefreshBurst, logger))
				r.Use(middleware.Auth(cfg.RefreshAuth, logger))
				r.Use(middleware.RequireRole(cfg.RefreshRoles...))

				r.Post("/catalog/refresh", catalogHandler.Refresh)
			})
		}
	})

	return r
}
