package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	"github.com/utafrali/ReviewsGo/internal/storage"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
	"github.com/utafrali/ReviewsGo/pkg/pagination"
	"github.com/utafrali/ReviewsGo/pkg/workflow"
)

// Workflow names for moderation flows.
const (
	WorkflowModerateReviews = "moderate_reviews"
	WorkflowDeleteReview    = "delete_review"

	StepDeleteImages = "delete_images"
	StepDeleteReview = "delete_review"
)

// ModerationService implements staff moderation of reviews.
type ModerationService struct {
	reviews  repository.ReviewRepository
	images   repository.ImageRepository
	store    storage.Storage
	producer EventPublisher
	runner   *workflow.Runner
	logger   *slog.Logger
}

// NewModerationService creates a new moderation service.
func NewModerationService(
	reviews repository.ReviewRepository,
	images repository.ImageRepository,
	store storage.Storage,
	producer EventPublisher,
	runner *workflow.Runner,
	logger *slog.Logger,
) *ModerationService {
	return &ModerationService{
		reviews:  reviews,
		images:   images,
		store:    store,
		producer: producer,
		runner:   runner,
		logger:   logger,
	}
}

// List returns reviews for the moderation queue.
func (s *ModerationService) List(ctx context.Context, filter repository.ReviewFilter, params pagination.Params) ([]domain.Review, int, error) {
	if filter.Status != "" && !domain.IsValidStatus(filter.Status) {
		return nil, 0, apperrors.InvalidInput("invalid status filter")
	}

	reviews, total, err := s.reviews.List(ctx, filter, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}
	grouped, err := s.images.ListByReviews(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("list review images: %w", err)
	}
	for i := range reviews {
		reviews[i].Images = grouped[reviews[i].ID]
	}

	return reviews, total, nil
}

// Approve approves a single review.
func (s *ModerationService) Approve(ctx context.Context, id string) (*domain.Review, error) {
	reviews, err := s.SetStatus(ctx, []string{id}, domain.StatusApproved, "")
	if err != nil {
		return nil, err
	}
	return reviews[0], nil
}

// Reject rejects a single review with the given reason.
func (s *ModerationService) Reject(ctx context.Context, id, reason string) (*domain.Review, error) {
	reviews, err := s.SetStatus(ctx, []string{id}, domain.StatusRejected, reason)
	if err != nil {
		return nil, err
	}
	return reviews[0], nil
}

// priorState captures a review's moderation fields before a status change,
// so the change can be rolled back.
type priorState struct {
	id     string
	status string
	reason *string
}

// SetStatus applies a moderation decision to a batch of reviews as a single
// compensable workflow: either every review reaches the new status or none
// do. Approving clears any rejection reason; rejecting requires a non-empty
// reason that is stored on every review in the batch.
func (s *ModerationService) SetStatus(ctx context.Context, ids []string, status, reason string) ([]*domain.Review, error) {
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("at least one review id is required")
	}
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput("invalid review status")
	}
	if status == domain.StatusRejected && reason == "" {
		return nil, apperrors.InvalidInput("rejection reason is required")
	}
	if status != domain.StatusRejected && reason != "" {
		return nil, apperrors.InvalidInput("rejection reason is only valid when rejecting")
	}

	steps := make([]workflow.Step, 0, len(ids))
	updated := make([]*domain.Review, 0, len(ids))

	for _, id := range ids {
		id := id
		steps = append(steps, workflow.Step{
			Name: "set_status_" + id,
			Forward: func(ctx context.Context, input any) (any, any, error) {
				review, err := s.reviews.GetByID(ctx, id)
				if err != nil {
					return nil, nil, err
				}
				if review.IsDeleted() {
					return nil, nil, apperrors.NotFound("review", id)
				}

				prior := priorState{id: id, status: review.Status, reason: review.RejectionReason}

				switch status {
				case domain.StatusApproved:
					review.Approve()
				case domain.StatusRejected:
					review.Reject(reason)
				default:
					review.Status = domain.StatusPending
					review.RejectionReason = nil
				}

				if err := s.reviews.UpdateStatus(ctx, id, review.Status, review.RejectionReason); err != nil {
					return nil, nil, err
				}

				updated = append(updated, review)
				return input, prior, nil
			},
			Inverse: func(ctx context.Context, undo any) error {
				prior := undo.(priorState)
				return s.reviews.UpdateStatus(ctx, prior.id, prior.status, prior.reason)
			},
		})
	}

	if _, err := s.runner.Run(ctx, WorkflowModerateReviews, steps, nil); err != nil {
		return nil, err
	}

	for _, review := range updated {
		s.publishModerated(ctx, review)
	}

	s.logger.InfoContext(ctx, "moderation decision applied",
		slog.Int("reviews", len(updated)),
		slog.String("status", status),
	)

	return updated, nil
}

// Delete soft-deletes a review through a compensable workflow: first the
// image rows are captured and removed, then the review is marked deleted.
// If marking the review fails, the image rows are re-inserted. Storage blobs
// are removed only after the workflow commits, best effort.
func (s *ModerationService) Delete(ctx context.Context, id string) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.IsDeleted() {
		return apperrors.NotFound("review", id)
	}

	var removed []domain.Image

	steps := []workflow.Step{
		{
			Name: StepDeleteImages,
			Forward: func(ctx context.Context, input any) (any, any, error) {
				images, err := s.images.ListByReview(ctx, id)
				if err != nil {
					return nil, nil, err
				}
				if err := s.images.DeleteByReview(ctx, id); err != nil {
					return nil, nil, err
				}
				removed = images
				return input, images, nil
			},
			Inverse: func(ctx context.Context, undo any) error {
				images := undo.([]domain.Image)
				for i := range images {
					if err := s.images.Create(ctx, &images[i]); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name: StepDeleteReview,
			Forward: func(ctx context.Context, input any) (any, any, error) {
				if err := s.reviews.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
					return nil, nil, err
				}
				return input, id, nil
			},
			Inverse: func(ctx context.Context, undo any) error {
				return s.reviews.Restore(ctx, undo.(string))
			},
		},
	}

	if _, err := s.runner.Run(ctx, WorkflowDeleteReview, steps, nil); err != nil {
		return err
	}

	// Blob cleanup after the rows are gone. A leaked blob is preferable to
	// an image row pointing at a deleted object.
	for _, img := range removed {
		if img.ObjectKey == "" {
			continue
		}
		if err := s.store.Delete(ctx, img.ObjectKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete image object",
				slog.String("object_key", img.ObjectKey),
				slog.String("error", err.Error()),
			)
		}
	}

	if pubErr := s.producer.PublishReviewDeleted(ctx, review); pubErr != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", id),
			slog.String("error", pubErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", id),
		slog.Int("images_removed", len(removed)),
	)

	return nil
}

func (s *ModerationService) publishModerated(ctx context.Context, review *domain.Review) {
	var err error
	switch review.Status {
	case domain.StatusApproved:
		err = s.producer.PublishReviewApproved(ctx, review)
	case domain.StatusRejected:
		err = s.producer.PublishReviewRejected(ctx, review)
	default:
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish moderation event",
			slog.String("review_id", review.ID),
			slog.String("status", review.Status),
			slog.String("error", err.Error()),
		)
	}
}
