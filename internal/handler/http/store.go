package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/pkg/httputil"
	"github.com/utafrali/ReviewsGo/pkg/middleware"
	"github.com/utafrali/ReviewsGo/pkg/pagination"
	"github.com/utafrali/ReviewsGo/pkg/validator"
)

// StoreHandler handles the customer-facing review endpoints.
type StoreHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewStoreHandler creates a new storefront HTTP handler.
func NewStoreHandler(svc *service.ReviewService, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SubmitReviewRequest is the JSON request body for submitting a review.
// Callers may send either a display_name or a first_name/last_name pair.
type SubmitReviewRequest struct {
	ProductID   string  `json:"product_id" validate:"required"`
	Rating      int     `json:"rating" validate:"required,min=1,max=5"`
	Title       *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Content     string  `json:"content" validate:"required,max=5000"`
	DisplayName string  `json:"display_name" validate:"max=100"`
	FirstName   string  `json:"first_name" validate:"max=50"`
	LastName    string  `json:"last_name" validate:"max=50"`
	OrderID     *string `json:"order_id,omitempty"`
}

func (r *SubmitReviewRequest) displayName() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// --- Handlers ---

// SubmitReview handles POST /api/v1/store/reviews.
func (h *StoreHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.CustomerIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body: "+err.Error())
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.SubmitReviewInput{
		ProductID:   req.ProductID,
		DisplayName: req.displayName(),
		Title:       req.Title,
		Content:     req.Content,
		Rating:      req.Rating,
		OrderID:     req.OrderID,
	}

	review, err := h.service.SubmitReview(r.Context(), customerID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"review": review})
}

// ListProductReviews handles GET /api/v1/store/products/{productId}/reviews.
// Only approved, non-deleted reviews are returned, along with the aggregate
// rating over all of them.
func (h *StoreHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "product id is required")
		return
	}

	params := pagination.FromRequest(r)

	result, err := h.service.ListProductReviews(r.Context(), productID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"reviews":        result.Reviews,
		"count":          result.Count,
		"limit":          params.Limit,
		"offset":         params.Offset,
		"average_rating": result.AverageRating,
	})
}

// GetReview handles GET /api/v1/store/reviews/{id}. Pending, rejected, and
// deleted reviews are reported as not found.
func (h *StoreHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "review id is required")
		return
	}

	review, err := h.service.GetReview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"review": review})
}

// ListReviewRequests handles GET /api/v1/store/review-requests. Customers
// see only their own review solicitations.
func (h *StoreHandler) ListReviewRequests(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.CustomerIDFromContext(r.Context())
	status := r.URL.Query().Get("status")
	params := pagination.FromRequest(r)

	requests, total, err := h.service.ListRequests(r.Context(), customerID, status, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"review_requests": requests,
		"count":           total,
		"limit":           params.Limit,
		"offset":          params.Offset,
	})
}
