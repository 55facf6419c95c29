package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
	pkgkafka "github.com/utafrali/ReviewsGo/pkg/kafka"
)

// TopicOrderCompleted is the external topic announcing completed orders.
// Each completed order line item produces one review request.
const TopicOrderCompleted = "orders.order.completed"

// ConsumerGroup is the Kafka consumer group for the reviews service.
const ConsumerGroup = "reviews-service"

// OrderCompletedData is the payload of an order.completed event.
type OrderCompletedData struct {
	OrderID    string               `json:"order_id"`
	CustomerID string               `json:"customer_id"`
	Items      []OrderCompletedItem `json:"items"`
}

// OrderCompletedItem is a single line item in a completed order.
type OrderCompletedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderCompletedHandler turns order.completed events into review requests.
type OrderCompletedHandler struct {
	requests repository.RequestRepository
	logger   *slog.Logger
}

// NewOrderCompletedHandler creates the handler.
func NewOrderCompletedHandler(requests repository.RequestRepository, logger *slog.Logger) *OrderCompletedHandler {
	return &OrderCompletedHandler{
		requests: requests,
		logger:   logger,
	}
}

// Handle creates one pending review request per product in the order.
// Requests that already exist for the (order, product) pair are skipped, so
// redelivered events are harmless.
func (h *OrderCompletedHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	var data OrderCompletedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal order.completed data: %w", err)
	}

	if data.OrderID == "" || data.CustomerID == "" {
		h.logger.WarnContext(ctx, "order.completed event missing identifiers, skipping",
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	for _, item := range data.Items {
		if item.ProductID == "" {
			continue
		}

		request := domain.NewReviewRequest(data.OrderID, data.CustomerID, item.ProductID)
		err := h.requests.Create(ctx, request)
		if err != nil {
			if errors.Is(err, apperrors.ErrAlreadyExists) {
				continue
			}
			return fmt.Errorf("create review request for product %s: %w", item.ProductID, err)
		}

		h.logger.InfoContext(ctx, "review request created",
			slog.String("request_id", request.ID),
			slog.String("order_id", data.OrderID),
			slog.String("product_id", item.ProductID),
		)
	}

	return nil
}
