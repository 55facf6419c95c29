package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	"github.com/utafrali/ReviewsGo/pkg/database"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

const reviewColumns = `id, product_id, customer_id, order_id, display_name, title, content, rating, status, rejection_reason, helpful_count, reported_count, created_at, updated_at, deleted_at`

// orderClauses whitelists the sort orders accepted by listing queries.
// Anything else falls back to newest first.
var orderClauses = map[string]string{
	"newest":      "created_at DESC",
	"oldest":      "created_at ASC",
	"rating_desc": "rating DESC, created_at DESC",
	"rating_asc":  "rating ASC, created_at DESC",
	"helpful":     "helpful_count DESC, created_at DESC",
}

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review record.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, customer_id, order_id, display_name, title, content, rating, status, rejection_reason, helpful_count, reported_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.ProductID,
		review.CustomerID,
		review.OrderID,
		review.DisplayName,
		review.Title,
		review.Content,
		review.Rating,
		review.Status,
		review.RejectionReason,
		review.HelpfulCount,
		review.ReportedCount,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by ID, including soft-deleted ones.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)

	review, err := r.scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return review, nil
}

// ListVisibleByProduct returns approved, non-deleted reviews for a product.
func (r *ReviewRepository) ListVisibleByProduct(ctx context.Context, productID, order string, limit, offset int) ([]domain.Review, int, error) {
	orderBy, ok := orderClauses[order]
	if !ok {
		orderBy = orderClauses["newest"]
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM reviews
		WHERE product_id = $1 AND status = $2 AND deleted_at IS NULL
		ORDER BY %s
		LIMIT $3 OFFSET $4`, reviewColumns, orderBy)

	rows, err := r.db.Query(ctx, query, productID, domain.StatusApproved, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	return r.collectReviews(rows)
}

// List returns reviews matching the filter, for moderation tooling.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter, limit, offset int) ([]domain.Review, int, error) {
	conditions := []string{"1=1"}
	args := []any{}
	argn := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argn))
		args = append(args, filter.Status)
		argn++
	}
	if filter.ProductID != "" {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", argn))
		args = append(args, filter.ProductID)
		argn++
	}
	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}

	where := conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM reviews
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, reviewColumns, where, argn, argn+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	return r.collectReviews(rows)
}

// UpdateStatus sets the moderation status and rejection reason.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id, status string, rejectionReason *string) error {
	query := `
		UPDATE reviews
		SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, status, rejectionReason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update review status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// SoftDelete marks the review deleted at the given time.
func (r *ReviewRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE reviews
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`

	ct, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("soft delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// Restore clears the soft-delete marker.
func (r *ReviewRepository) Restore(ctx context.Context, id string) error {
	query := `
		UPDATE reviews
		SET deleted_at = NULL, updated_at = $1
		WHERE id = $2`

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("restore review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// HardDelete removes the review row entirely.
func (r *ReviewRepository) HardDelete(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("hard delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// RatingSummary computes the average rating and count for visible reviews.
func (r *ReviewRepository) RatingSummary(ctx context.Context, productID string) (repository.RatingSummary, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE product_id = $1 AND status = $2 AND deleted_at IS NULL`

	var summary repository.RatingSummary
	err := r.db.QueryRow(ctx, query, productID, domain.StatusApproved).Scan(&summary.Average, &summary.Count)
	if err != nil {
		return repository.RatingSummary{}, fmt.Errorf("rating summary: %w", err)
	}

	return summary, nil
}

// collectReviews drains rows that include a trailing total_count column.
func (r *ReviewRepository) collectReviews(rows pgx.Rows) ([]domain.Review, int, error) {
	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.CustomerID,
			&rv.OrderID,
			&rv.DisplayName,
			&rv.Title,
			&rv.Content,
			&rv.Rating,
			&rv.Status,
			&rv.RejectionReason,
			&rv.HelpfulCount,
			&rv.ReportedCount,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&rv.DeletedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

func (r *ReviewRepository) scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.CustomerID,
		&rv.OrderID,
		&rv.DisplayName,
		&rv.Title,
		&rv.Content,
		&rv.Rating,
		&rv.Status,
		&rv.RejectionReason,
		&rv.HelpfulCount,
		&rv.ReportedCount,
		&rv.CreatedAt,
		&rv.UpdatedAt,
		&rv.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}
