package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Rating Validation Tests
// ============================================================================

func TestIsValidRating_Bounds(t *testing.T) {
	assert.True(t, IsValidRating(1))
	assert.True(t, IsValidRating(3))
	assert.True(t, IsValidRating(5))
}

func TestIsValidRating_OutOfBounds(t *testing.T) {
	assert.False(t, IsValidRating(0))
	assert.False(t, IsValidRating(6))
	assert.False(t, IsValidRating(-1))
	assert.False(t, IsValidRating(100))
}

// ============================================================================
// Status Validation Tests
// ============================================================================

func TestValidStatuses_ContainsAll(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{StatusPending, StatusApproved, StatusRejected},
		ValidStatuses(),
	)
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(StatusPending))
	assert.True(t, IsValidStatus(StatusApproved))
	assert.True(t, IsValidStatus(StatusRejected))
	assert.False(t, IsValidStatus("deleted"))
	assert.False(t, IsValidStatus(""))
	assert.False(t, IsValidStatus("APPROVED"))
}

// ============================================================================
// Review Lifecycle Tests
// ============================================================================

func TestNewReview_StartsPending(t *testing.T) {
	r := NewReview("prod_1", "Jane", "Great product", 5)

	require.NotEmpty(t, r.ID)
	assert.Equal(t, StatusPending, r.Status)
	assert.Nil(t, r.RejectionReason)
	assert.Zero(t, r.HelpfulCount)
	assert.Zero(t, r.ReportedCount)
	assert.Nil(t, r.DeletedAt)
}

func TestReview_ApproveClearsRejectionReason(t *testing.T) {
	r := NewReview("prod_1", "Jane", "Great product", 4)
	r.Reject("spam")
	require.NotNil(t, r.RejectionReason)

	r.Approve()

	assert.Equal(t, StatusApproved, r.Status)
	assert.Nil(t, r.RejectionReason)
}

func TestReview_RejectSetsReason(t *testing.T) {
	r := NewReview("prod_1", "Jane", "Bad words here", 1)

	r.Reject("inappropriate language")

	assert.Equal(t, StatusRejected, r.Status)
	require.NotNil(t, r.RejectionReason)
	assert.Equal(t, "inappropriate language", *r.RejectionReason)
}

func TestReview_IsVisible(t *testing.T) {
	r := NewReview("prod_1", "Jane", "ok", 3)
	assert.False(t, r.IsVisible(), "pending reviews are not visible")

	r.Approve()
	assert.True(t, r.IsVisible())

	now := time.Now().UTC()
	r.DeletedAt = &now
	assert.False(t, r.IsVisible(), "deleted reviews are not visible even when approved")
}

func TestReview_RejectedNeverVisible(t *testing.T) {
	r := NewReview("prod_1", "Jane", "ok", 3)
	r.Reject("off topic")
	assert.False(t, r.IsVisible())
}
