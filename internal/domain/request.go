package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review request status constants.
const (
	RequestStatusPending   = "pending"
	RequestStatusFulfilled = "fulfilled"
)

// ReviewRequest invites a customer to review a product they purchased. One
// request is created per product per completed order.
type ReviewRequest struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	ProductID  string    `json:"product_id"`
	Status     string    `json:"status"`
	ReviewID   *string   `json:"review_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewReviewRequest creates a pending review request with a generated ID.
func NewReviewRequest(orderID, customerID, productID string) *ReviewRequest {
	now := time.Now().UTC()
	return &ReviewRequest{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		CustomerID: customerID,
		ProductID:  productID,
		Status:     RequestStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Fulfill marks the request as fulfilled by the given review.
func (r *ReviewRequest) Fulfill(reviewID string) {
	r.Status = RequestStatusFulfilled
	r.ReviewID = &reviewID
	r.UpdatedAt = time.Now().UTC()
}

// Reopen reverts the request to pending, detaching any linked review. Used
// when a review submission is rolled back after the request was fulfilled.
func (r *ReviewRequest) Reopen() {
	r.Status = RequestStatusPending
	r.ReviewID = nil
	r.UpdatedAt = time.Now().UTC()
}

// IsPending reports whether the request still awaits a review.
func (r *ReviewRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}
