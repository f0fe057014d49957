package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/marketplace/internal/domain"
	"github.com/utafrali/marketplace/pkg/health"
	"github.com/utafrali/marketplace/pkg/middleware"
	"github.com/utafrali/marketplace/pkg/validator"
)

// RouterDeps collects everything NewRouter wires into the route tree.
type RouterDeps struct {
	Products       ProductService
	Auth           AuthService
	PasswordPolicy validator.PasswordPolicy
	TokenValidator middleware.TokenValidator
	AuthRateLimit  *middleware.RateLimiter
	Health         *health.Handler
	Metrics        *middleware.HTTPMetrics
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all marketplace routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware. Recovery sits inside RequestLogging so a recovered
	// panic is logged as a 500 with its correlation ID.
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Tracing())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	authHandler := NewAuthHandler(deps.Auth, deps.PasswordPolicy, deps.Logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		if deps.AuthRateLimit != nil {
			r.Use(deps.AuthRateLimit.Middleware)
		}
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequestLogger(deps.Logger))

		r.Post("/markets/register", authHandler.RegisterMarket)
		r.Post("/token/exchange", authHandler.ExchangeToken)
	})

	productHandler := NewProductHandler(deps.Products, deps.Logger)
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.RequestLogger(deps.Logger)).Get("/{id}", productHandler.GetProduct)

		// Writes are scoped to the authenticated market.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.TokenValidator))
			r.Use(middleware.RequireRole(domain.RoleMarket))
			r.Use(middleware.RequestLogger(deps.Logger))

			r.Post("/", productHandler.CreateProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
		})
	})

	return r
}
