package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ReviewsGo/internal/repository"
	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/pkg/httputil"
	"github.com/utafrali/ReviewsGo/pkg/pagination"
	"github.com/utafrali/ReviewsGo/pkg/validator"
)

// AdminHandler handles the staff moderation endpoints.
type AdminHandler struct {
	service *service.ModerationService
	logger  *slog.Logger
}

// NewAdminHandler creates a new moderation HTTP handler.
func NewAdminHandler(svc *service.ModerationService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SetStatusRequest is the JSON request body for batch status changes.
type SetStatusRequest struct {
	IDs             []string `json:"ids" validate:"required,min=1"`
	Status          string   `json:"status" validate:"required"`
	RejectionReason string   `json:"rejection_reason"`
}

// RejectReviewRequest is the JSON request body for rejecting a review.
type RejectReviewRequest struct {
	RejectionReason string `json:"rejection_reason" validate:"required"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/admin/reviews. Unlike the storefront
// listing it covers every moderation status, optionally filtered.
func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	filter := repository.ReviewFilter{
		Status:         r.URL.Query().Get("status"),
		ProductID:      r.URL.Query().Get("product_id"),
		IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
	}
	params := pagination.FromRequest(r)

	reviews, total, err := h.service.List(r.Context(), filter, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"reviews": reviews,
		"count":   total,
		"limit":   params.Limit,
		"offset":  params.Offset,
	})
}

// SetStatus handles POST /api/v1/admin/reviews/status. The batch is
// all-or-nothing: a failure partway through rolls back the earlier changes.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body: "+err.Error())
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	reviews, err := h.service.SetStatus(r.Context(), req.IDs, req.Status, req.RejectionReason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// ApproveReview handles POST /api/v1/admin/reviews/{id}/approve.
func (h *AdminHandler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "review id is required")
		return
	}

	review, err := h.service.Approve(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"review": review})
}

// RejectReview handles POST /api/v1/admin/reviews/{id}/reject.
func (h *AdminHandler) RejectReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "review id is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RejectReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body: "+err.Error())
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.Reject(r.Context(), id, req.RejectionReason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"review": review})
}

// DeleteReview handles DELETE /api/v1/admin/reviews/{id}.
func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "INVALID_INPUT", "review id is required")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "status": "deleted"})
}
