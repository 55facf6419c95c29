package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/pkg/database"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

const requestColumns = `id, order_id, customer_id, product_id, status, review_id, created_at, updated_at`

// RequestRepository implements repository.RequestRepository using PostgreSQL.
type RequestRepository struct {
	db database.DBTX
}

// NewRequestRepository creates a new PostgreSQL-backed review request repository.
func NewRequestRepository(db database.DBTX) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a review request. A duplicate (order_id, product_id) pair
// surfaces as an already-exists error.
func (r *RequestRepository) Create(ctx context.Context, request *domain.ReviewRequest) error {
	query := `
		INSERT INTO review_requests (id, order_id, customer_id, product_id, status, review_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		request.ID,
		request.OrderID,
		request.CustomerID,
		request.ProductID,
		request.Status,
		request.ReviewID,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review_request", request.OrderID+"/"+request.ProductID)
		}
		return fmt.Errorf("insert review request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.ReviewRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM review_requests WHERE id = $1`, requestColumns)

	req, err := r.scanRequest(ctx, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review_request", id)
		}
		return nil, fmt.Errorf("get review request: %w", err)
	}

	return req, nil
}

// FindPending locates a pending request for a customer and product.
func (r *RequestRepository) FindPending(ctx context.Context, customerID, productID string) (*domain.ReviewRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM review_requests
		WHERE customer_id = $1 AND product_id = $2 AND status = $3
		ORDER BY created_at ASC
		LIMIT 1`, requestColumns)

	req, err := r.scanRequest(ctx, query, customerID, productID, domain.RequestStatusPending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find pending review request: %w", err)
	}

	return req, nil
}

// ListByCustomer returns a customer's requests with pagination.
func (r *RequestRepository) ListByCustomer(ctx context.Context, customerID, status string, limit, offset int) ([]domain.ReviewRequest, int, error) {
	args := []any{customerID}
	where := "customer_id = $1"
	if status != "" {
		where += " AND status = $2"
		args = append(args, status)
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM review_requests
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, requestColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list review requests: %w", err)
	}
	defer rows.Close()

	var (
		requests   []domain.ReviewRequest
		totalCount int
	)

	for rows.Next() {
		var req domain.ReviewRequest
		if err := rows.Scan(
			&req.ID,
			&req.OrderID,
			&req.CustomerID,
			&req.ProductID,
			&req.Status,
			&req.ReviewID,
			&req.CreatedAt,
			&req.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review request row: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review request rows: %w", err)
	}

	if requests == nil {
		requests = []domain.ReviewRequest{}
	}

	return requests, totalCount, nil
}

// Update persists status and review linkage changes.
func (r *RequestRepository) Update(ctx context.Context, request *domain.ReviewRequest) error {
	request.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE review_requests
		SET status = $1, review_id = $2, updated_at = $3
		WHERE id = $4`

	ct, err := r.db.Exec(ctx, query,
		request.Status,
		request.ReviewID,
		request.UpdatedAt,
		request.ID,
	)
	if err != nil {
		return fmt.Errorf("update review request: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review_request", request.ID)
	}

	return nil
}

func (r *RequestRepository) scanRequest(ctx context.Context, query string, args ...any) (*domain.ReviewRequest, error) {
	var req domain.ReviewRequest
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&req.ID,
		&req.OrderID,
		&req.CustomerID,
		&req.ProductID,
		&req.Status,
		&req.ReviewID,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
