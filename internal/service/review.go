package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/ReviewsGo/internal/catalog"
	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
	"github.com/utafrali/ReviewsGo/pkg/pagination"
	"github.com/utafrali/ReviewsGo/pkg/validator"
	"github.com/utafrali/ReviewsGo/pkg/workflow"
)

// Workflow and step names for the review submission flow.
const (
	WorkflowSubmitReview = "submit_review"

	StepVerifyProduct  = "verify_product"
	StepCreateReview   = "create_review"
	StepFulfillRequest = "fulfill_request"
)

// EventPublisher publishes review lifecycle events. Satisfied by
// event.Producer; tests substitute a mock.
type EventPublisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishReviewApproved(ctx context.Context, review *domain.Review) error
	PublishReviewRejected(ctx context.Context, review *domain.Review) error
	PublishReviewDeleted(ctx context.Context, review *domain.Review) error
}

// SubmissionGuard throttles duplicate submissions per customer and product.
type SubmissionGuard interface {
	TryAcquire(ctx context.Context, customerID, productID string) (bool, error)
	Release(ctx context.Context, customerID, productID string) error
}

// ReviewService implements review submission and public listing.
type ReviewService struct {
	reviews  repository.ReviewRepository
	images   repository.ImageRepository
	requests repository.RequestRepository
	guard    SubmissionGuard
	verifier catalog.Verifier
	producer EventPublisher
	runner   *workflow.Runner
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	images repository.ImageRepository,
	requests repository.RequestRepository,
	guard SubmissionGuard,
	verifier catalog.Verifier,
	producer EventPublisher,
	runner *workflow.Runner,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		images:   images,
		requests: requests,
		guard:    guard,
		verifier: verifier,
		producer: producer,
		runner:   runner,
		logger:   logger,
	}
}

// AnonymousDisplayName is shown when a submission carries no reviewer name.
const AnonymousDisplayName = "Anonymous"

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	ProductID   string  `json:"product_id" validate:"required"`
	DisplayName string  `json:"display_name" validate:"omitempty,max=100"`
	Title       *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Content     string  `json:"content" validate:"required,max=5000"`
	Rating      int     `json:"rating" validate:"required"`
	OrderID     *string `json:"order_id,omitempty"`
}

// SubmitReview creates a review through the submission workflow: verify the
// product exists, insert the pending review, and fulfill any matching review
// request. If a later step fails, earlier steps are rolled back and the
// original failure is returned.
//
// The review always starts in pending status. Customer-supplied status or
// counts are never honored.
func (s *ReviewService) SubmitReview(ctx context.Context, customerID string, input *SubmitReviewInput) (*domain.Review, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("review input is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	if !domain.IsValidRating(input.Rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	acquired, err := s.guard.TryAcquire(ctx, customerID, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("submission guard: %w", err)
	}
	if !acquired {
		return nil, apperrors.Conflict("a review for this product was submitted moments ago")
	}

	steps := []workflow.Step{
		s.verifyProductStep(),
		s.createReviewStep(customerID, input),
		s.fulfillRequestStep(customerID, input.ProductID),
	}

	result, err := s.runner.Run(ctx, WorkflowSubmitReview, steps, input.ProductID)
	if err != nil {
		// Free the guard so the customer can retry immediately.
		if relErr := s.guard.Release(ctx, customerID, input.ProductID); relErr != nil {
			s.logger.WarnContext(ctx, "failed to release submission guard",
				slog.String("product_id", input.ProductID),
				slog.String("error", relErr.Error()),
			)
		}
		return nil, err
	}

	review := result.(*domain.Review)

	// Publish event; log but do not fail on error.
	if pubErr := s.producer.PublishReviewCreated(ctx, review); pubErr != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", pubErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// verifyProductStep checks the product exists. It has no inverse: reading
// the catalog changes nothing.
func (s *ReviewService) verifyProductStep() workflow.Step {
	return workflow.Step{
		Name: StepVerifyProduct,
		Forward: func(ctx context.Context, input any) (any, any, error) {
			productID := input.(string)
			if err := s.verifier.VerifyProduct(ctx, productID); err != nil {
				return nil, nil, err
			}
			return productID, nil, nil
		},
	}
}

// createReviewStep inserts the pending review. Its inverse removes the row
// entirely, since a review that never completed submission should leave no
// trace.
func (s *ReviewService) createReviewStep(customerID string, input *SubmitReviewInput) workflow.Step {
	return workflow.Step{
		Name: StepCreateReview,
		Forward: func(ctx context.Context, _ any) (any, any, error) {
			displayName := strings.TrimSpace(input.DisplayName)
			if displayName == "" {
				displayName = AnonymousDisplayName
			}

			review := domain.NewReview(input.ProductID, displayName, input.Content, input.Rating)
			if customerID != "" {
				review.CustomerID = &customerID
			}
			review.OrderID = input.OrderID
			review.Title = input.Title

			if err := s.reviews.Create(ctx, review); err != nil {
				return nil, nil, err
			}
			return review, review.ID, nil
		},
		Inverse: func(ctx context.Context, undo any) error {
			return s.reviews.HardDelete(ctx, undo.(string))
		},
	}
}

// fulfillRequestStep links the review to a pending review request when one
// exists. Its inverse reopens the request. Absence of a request is not a
// failure: most reviews arrive unsolicited.
func (s *ReviewService) fulfillRequestStep(customerID, productID string) workflow.Step {
	return workflow.Step{
		Name: StepFulfillRequest,
		Forward: func(ctx context.Context, input any) (any, any, error) {
			review := input.(*domain.Review)
			if customerID == "" {
				return review, nil, nil
			}

			request, err := s.requests.FindPending(ctx, customerID, productID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return review, nil, nil
				}
				return nil, nil, err
			}

			request.Fulfill(review.ID)
			if err := s.requests.Update(ctx, request); err != nil {
				return nil, nil, err
			}
			return review, request.ID, nil
		},
		Inverse: func(ctx context.Context, undo any) error {
			if undo == nil {
				return nil
			}
			request, err := s.requests.GetByID(ctx, undo.(string))
			if err != nil {
				return err
			}
			request.Reopen()
			return s.requests.Update(ctx, request)
		},
	}
}

// ProductReviews is the result of a public review listing.
type ProductReviews struct {
	Reviews       []domain.Review
	Count         int
	AverageRating float64
}

// ListProductReviews returns visible reviews for a product with their images,
// plus the aggregate rating over all visible reviews. A product with no
// visible reviews yields an empty list and a zero average.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID string, params pagination.Params) (*ProductReviews, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	reviews, total, err := s.reviews.ListVisibleByProduct(ctx, productID, params.Order, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}

	if err := s.attachImages(ctx, reviews); err != nil {
		return nil, err
	}

	summary, err := s.reviews.RatingSummary(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}

	return &ProductReviews{
		Reviews:       reviews,
		Count:         total,
		AverageRating: summary.Average,
	}, nil
}

// GetReview returns a single visible review with its images.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.IsVisible() {
		return nil, apperrors.NotFound("review", id)
	}

	images, err := s.images.ListByReview(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list review images: %w", err)
	}
	review.Images = images

	return review, nil
}

// ListRequests returns a customer's review requests.
func (s *ReviewService) ListRequests(ctx context.Context, customerID, status string, params pagination.Params) ([]domain.ReviewRequest, int, error) {
	if customerID == "" {
		return nil, 0, apperrors.Unauthorized("customer id is required")
	}
	if status != "" && status != domain.RequestStatusPending && status != domain.RequestStatusFulfilled {
		return nil, 0, apperrors.InvalidInput("invalid request status filter")
	}

	return s.requests.ListByCustomer(ctx, customerID, status, params.Limit, params.Offset)
}

// attachImages hydrates the Images field on a slice of reviews in one query.
func (s *ReviewService) attachImages(ctx context.Context, reviews []domain.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	ids := make([]string, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}

	grouped, err := s.images.ListByReviews(ctx, ids)
	if err != nil {
		return fmt.Errorf("list review images: %w", err)
	}

	for i := range reviews {
		reviews[i].Images = grouped[reviews[i].ID]
	}

	return nil
}
