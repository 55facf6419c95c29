package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review status constants.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a customer review of a product.
type Review struct {
	ID              string     `json:"id"`
	ProductID       string     `json:"product_id"`
	CustomerID      *string    `json:"customer_id,omitempty"`
	OrderID         *string    `json:"order_id,omitempty"`
	DisplayName     string     `json:"display_name"`
	Title           *string    `json:"title,omitempty"`
	Content         string     `json:"content"`
	Rating          int        `json:"rating"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	HelpfulCount    int        `json:"helpful_count"`
	ReportedCount   int        `json:"reported_count"`
	Images          []Image    `json:"images,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// NewReview creates a pending review with a generated ID. Counts start at
// zero regardless of what the caller supplies later.
func NewReview(productID, displayName, content string, rating int) *Review {
	now := time.Now().UTC()
	return &Review{
		ID:            uuid.New().String(),
		ProductID:     productID,
		DisplayName:   displayName,
		Content:       content,
		Rating:        rating,
		Status:        StatusPending,
		HelpfulCount:  0,
		ReportedCount: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Approve transitions the review to approved and clears any rejection reason.
func (r *Review) Approve() {
	r.Status = StatusApproved
	r.RejectionReason = nil
	r.UpdatedAt = time.Now().UTC()
}

// Reject transitions the review to rejected. Rejected reviews always carry
// a reason, so callers must validate that reason is non-empty first.
func (r *Review) Reject(reason string) {
	r.Status = StatusRejected
	r.RejectionReason = &reason
	r.UpdatedAt = time.Now().UTC()
}

// IsDeleted reports whether the review has been soft-deleted.
func (r *Review) IsDeleted() bool {
	return r.DeletedAt != nil
}

// IsVisible reports whether the review appears in public listings: it must
// be approved and not soft-deleted.
func (r *Review) IsVisible() bool {
	return r.Status == StatusApproved && !r.IsDeleted()
}

// ValidStatuses returns the set of valid review statuses.
func ValidStatuses() []string {
	return []string{StatusPending, StatusApproved, StatusRejected}
}

// IsValidStatus checks whether the given status string is a valid review status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidRating checks whether the rating is within the allowed bounds.
func IsValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
