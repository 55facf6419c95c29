// Package redis holds the Redis-backed submission guard. It protects the
// reviews table from rapid duplicate submissions by the same customer for
// the same product, a common symptom of double-clicked submit buttons.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardKeyPrefix = "reviews:submit:"

// SubmissionGuard tracks recent review submissions per customer and product.
// The guard fails open: Redis being unavailable never blocks a submission.
type SubmissionGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSubmissionGuard creates a guard with the given deduplication window.
func NewSubmissionGuard(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SubmissionGuard {
	return &SubmissionGuard{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func guardKey(customerID, productID string) string {
	return fmt.Sprintf("%s%s:%s", guardKeyPrefix, customerID, productID)
}

// TryAcquire attempts to claim the submission slot for a customer and product.
// It returns false when a submission for the same pair landed within the
// guard window. Anonymous submissions (empty customer ID) are never blocked.
func (g *SubmissionGuard) TryAcquire(ctx context.Context, customerID, productID string) (bool, error) {
	if customerID == "" {
		return true, nil
	}

	ok, err := g.client.SetNX(ctx, guardKey(customerID, productID), 1, g.ttl).Result()
	if err != nil {
		g.logger.WarnContext(ctx, "submission guard unavailable, allowing submission",
			slog.String("customer_id", customerID),
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return true, nil
	}

	return ok, nil
}

// Release frees the submission slot early, so a failed submission can be
// retried immediately instead of waiting out the window.
func (g *SubmissionGuard) Release(ctx context.Context, customerID, productID string) error {
	if customerID == "" {
		return nil
	}

	if err := g.client.Del(ctx, guardKey(customerID, productID)).Err(); err != nil {
		return fmt.Errorf("release submission guard: %w", err)
	}

	return nil
}
