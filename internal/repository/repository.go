package repository

import (
	"context"
	"time"

	"github.com/utafrali/ReviewsGo/internal/domain"
)

// ReviewFilter narrows admin review listings.
type ReviewFilter struct {
	// Status filters by moderation status when non-empty.
	Status string
	// ProductID filters by product when non-empty.
	ProductID string
	// IncludeDeleted includes soft-deleted reviews in the listing.
	IncludeDeleted bool
}

// RatingSummary is the aggregate rating for one product, computed over
// approved, non-deleted reviews only.
type RatingSummary struct {
	Average float64
	Count   int
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review record.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by ID, including soft-deleted ones.
	// Visibility rules are applied by the caller.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListVisibleByProduct returns approved, non-deleted reviews for a
	// product with pagination, plus the total count.
	ListVisibleByProduct(ctx context.Context, productID, order string, limit, offset int) ([]domain.Review, int, error)

	// List returns reviews matching the filter with pagination, plus the
	// total count. Used by moderation tooling.
	List(ctx context.Context, filter ReviewFilter, limit, offset int) ([]domain.Review, int, error)

	// UpdateStatus sets the moderation status and rejection reason.
	UpdateStatus(ctx context.Context, id, status string, rejectionReason *string) error

	// SoftDelete marks the review deleted at the given time.
	SoftDelete(ctx context.Context, id string, at time.Time) error

	// Restore clears the soft-delete marker.
	Restore(ctx context.Context, id string) error

	// HardDelete removes the review row entirely. Used to roll back a
	// submission that failed partway through.
	HardDelete(ctx context.Context, id string) error

	// RatingSummary computes the average rating and review count for a
	// product over visible reviews. A product with no visible reviews
	// yields a zero summary.
	RatingSummary(ctx context.Context, productID string) (RatingSummary, error)
}

// ImageRepository defines the interface for review image persistence.
type ImageRepository interface {
	// Create inserts an image record for a review.
	Create(ctx context.Context, image *domain.Image) error

	// ListByReview returns all images for one review.
	ListByReview(ctx context.Context, reviewID string) ([]domain.Image, error)

	// ListByReviews returns images for many reviews keyed by review ID.
	ListByReviews(ctx context.Context, reviewIDs []string) (map[string][]domain.Image, error)

	// Delete removes a single image record.
	Delete(ctx context.Context, id string) error

	// DeleteByReview removes all image records for a review.
	DeleteByReview(ctx context.Context, reviewID string) error
}

// RequestRepository defines the interface for review request persistence.
type RequestRepository interface {
	// Create inserts a review request. Inserting a duplicate
	// (order_id, product_id) pair returns an already-exists error.
	Create(ctx context.Context, request *domain.ReviewRequest) error

	// GetByID retrieves a request by ID.
	GetByID(ctx context.Context, id string) (*domain.ReviewRequest, error)

	// FindPending locates a pending request for a customer and product.
	FindPending(ctx context.Context, customerID, productID string) (*domain.ReviewRequest, error)

	// ListByCustomer returns a customer's requests, optionally filtered by
	// status, with pagination and total count.
	ListByCustomer(ctx context.Context, customerID, status string, limit, offset int) ([]domain.ReviewRequest, int, error)

	// Update persists status and review linkage changes.
	Update(ctx context.Context, request *domain.ReviewRequest) error
}
