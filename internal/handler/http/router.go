package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/pkg/health"
	"github.com/utafrali/ReviewsGo/pkg/middleware"
)

const serviceName = "reviews"

// RouterConfig carries the router-level knobs that come from configuration.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	RateLimitRPS   float64
	RateLimitBurst int
}

// ContentTypeJSON sets the response content type for API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// NewRouter creates a chi router with all reviews service routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	moderationService *service.ModerationService,
	uploadService *service.UploadService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.Identity)
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Shared limiter so JSON and multipart submission routes draw from the
	// same per-caller bucket.
	rateLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	storeHandler := NewStoreHandler(reviewService, logger)
	uploadHandler := NewUploadHandler(uploadService, logger)
	adminHandler := NewAdminHandler(moderationService, logger)

	// Storefront endpoints
	r.Route("/api/v1/store", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Get("/products/{productId}/reviews", storeHandler.ListProductReviews)
			r.Get("/reviews/{id}", storeHandler.GetReview)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCustomer)
				r.Use(rateLimit)

				r.Post("/reviews", storeHandler.SubmitReview)
				r.Get("/review-requests", storeHandler.ListReviewRequests)
			})
		})

		// Multipart route sets its own content type.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCustomer)
			r.Use(rateLimit)

			r.Post("/reviews/{id}/images", uploadHandler.AttachImages)
		})
	})

	// Moderation endpoints
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequireStaff)

		r.Get("/reviews", adminHandler.ListReviews)
		r.Post("/reviews/status", adminHandler.SetStatus)
		r.Post("/reviews/{id}/approve", adminHandler.ApproveReview)
		r.Post("/reviews/{id}/reject", adminHandler.RejectReview)
		r.Delete("/reviews/{id}", adminHandler.DeleteReview)
	})

	return r
}
