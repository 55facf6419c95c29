package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/pkg/database"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

const imageColumns = `id, review_id, url, object_key, filename, content_type, size_bytes, alt_text, created_at`

// ImageRepository implements repository.ImageRepository using PostgreSQL.
type ImageRepository struct {
	db database.DBTX
}

// NewImageRepository creates a new PostgreSQL-backed image repository.
func NewImageRepository(db database.DBTX) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts an image record for a review.
func (r *ImageRepository) Create(ctx context.Context, image *domain.Image) error {
	query := `
		INSERT INTO review_images (id, review_id, url, object_key, filename, content_type, size_bytes, alt_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		image.ID,
		image.ReviewID,
		image.URL,
		image.ObjectKey,
		image.Filename,
		image.ContentType,
		image.SizeBytes,
		image.AltText,
		image.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review image: %w", err)
	}

	return nil
}

// ListByReview returns all images for one review, oldest first.
func (r *ImageRepository) ListByReview(ctx context.Context, reviewID string) ([]domain.Image, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM review_images
		WHERE review_id = $1
		ORDER BY created_at ASC`, imageColumns)

	rows, err := r.db.Query(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list review images: %w", err)
	}
	defer rows.Close()

	images := []domain.Image{}
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(
			&img.ID,
			&img.ReviewID,
			&img.URL,
			&img.ObjectKey,
			&img.Filename,
			&img.ContentType,
			&img.SizeBytes,
			&img.AltText,
			&img.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review image row: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review image rows: %w", err)
	}

	return images, nil
}

// ListByReviews returns images for many reviews keyed by review ID.
func (r *ImageRepository) ListByReviews(ctx context.Context, reviewIDs []string) (map[string][]domain.Image, error) {
	result := make(map[string][]domain.Image, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM review_images
		WHERE review_id = ANY($1)
		ORDER BY created_at ASC`, imageColumns)

	rows, err := r.db.Query(ctx, query, reviewIDs)
	if err != nil {
		return nil, fmt.Errorf("list review images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(
			&img.ID,
			&img.ReviewID,
			&img.URL,
			&img.ObjectKey,
			&img.Filename,
			&img.ContentType,
			&img.SizeBytes,
			&img.AltText,
			&img.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review image row: %w", err)
		}
		result[img.ReviewID] = append(result[img.ReviewID], img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review image rows: %w", err)
	}

	return result, nil
}

// Delete removes a single image record.
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM review_images WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review image: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review_image", id)
	}

	return nil
}

// DeleteByReview removes all image records for a review. Deleting zero rows
// is not an error: a review may have no images.
func (r *ImageRepository) DeleteByReview(ctx context.Context, reviewID string) error {
	query := `DELETE FROM review_images WHERE review_id = $1`

	if _, err := r.db.Exec(ctx, query, reviewID); err != nil {
		return fmt.Errorf("delete review images: %w", err)
	}

	return nil
}
