package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ReviewsGo/internal/domain"
	pkgkafka "github.com/utafrali/ReviewsGo/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCreated  = "reviews.review.created"
	TopicReviewApproved = "reviews.review.approved"
	TopicReviewRejected = "reviews.review.rejected"
	TopicReviewDeleted  = "reviews.review.deleted"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from this service.
const SourceReviewsService = "reviews-service"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"product_id"`
	CustomerID *string `json:"customer_id,omitempty"`
	OrderID    *string `json:"order_id,omitempty"`
	Rating     int     `json:"rating"`
}

// ReviewModeratedData is the payload for review.approved and review.rejected events.
type ReviewModeratedData struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"product_id"`
	Rating          int     `json:"rating"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the reviews service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:         review.ID,
		ProductID:  review.ProductID,
		CustomerID: review.CustomerID,
		OrderID:    review.OrderID,
		Rating:     review.Rating,
	}

	return p.publish(ctx, TopicReviewCreated, review.ID, data)
}

// PublishReviewApproved publishes a review.approved event.
func (p *Producer) PublishReviewApproved(ctx context.Context, review *domain.Review) error {
	data := ReviewModeratedData{
		ID:        review.ID,
		ProductID: review.ProductID,
		Rating:    review.Rating,
	}

	return p.publish(ctx, TopicReviewApproved, review.ID, data)
}

// PublishReviewRejected publishes a review.rejected event.
func (p *Producer) PublishReviewRejected(ctx context.Context, review *domain.Review) error {
	data := ReviewModeratedData{
		ID:              review.ID,
		ProductID:       review.ProductID,
		Rating:          review.Rating,
		RejectionReason: review.RejectionReason,
	}

	return p.publish(ctx, TopicReviewRejected, review.ID, data)
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	data := ReviewDeletedData{
		ID:        review.ID,
		ProductID: review.ProductID,
	}

	return p.publish(ctx, TopicReviewDeleted, review.ID, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeReview, SourceReviewsService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.String("review_id", aggregateID),
	)

	return nil
}
