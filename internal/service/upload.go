package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	"github.com/utafrali/ReviewsGo/internal/storage"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
	"github.com/utafrali/ReviewsGo/pkg/workflow"
)

// WorkflowAttachImages is the compensable flow attaching uploaded images to
// a review. Each accepted file contributes an upload step and an insert step.
const WorkflowAttachImages = "attach_images"

// UploadFile is a single file submitted for attachment.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	AltText     string
	Data        io.Reader
}

// InvalidFile reports a rejected file and why it was rejected.
type InvalidFile struct {
	Filename string `json:"fileName"`
	Reason   string `json:"reason"`
}

// UploadResult is the outcome of an attach operation: the images that were
// stored plus per-file warnings for the ones that were rejected.
type UploadResult struct {
	Uploads      []domain.Image
	InvalidFiles []InvalidFile
}

// UploadService attaches images to reviews.
type UploadService struct {
	reviews repository.ReviewRepository
	images  repository.ImageRepository
	store   storage.Storage
	runner  *workflow.Runner
	logger  *slog.Logger
}

// NewUploadService creates a new upload service.
func NewUploadService(
	reviews repository.ReviewRepository,
	images repository.ImageRepository,
	store storage.Storage,
	runner *workflow.Runner,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		reviews: reviews,
		images:  images,
		store:   store,
		runner:  runner,
		logger:  logger,
	}
}

// AttachImages validates and stores the given files against a review. Files
// that fail validation are skipped and reported as warnings; the remaining
// files are attached atomically through a compensable workflow, so a storage
// or database failure partway through leaves no orphaned objects or rows.
//
// The whole request is rejected when there are too many files or when every
// file fails validation.
func (s *UploadService) AttachImages(ctx context.Context, reviewID string, files []UploadFile) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, apperrors.InvalidInput("no files provided")
	}
	if len(files) > domain.MaxUploadFiles {
		return nil, apperrors.InvalidInput(fmt.Sprintf("too many files: at most %d allowed", domain.MaxUploadFiles))
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.IsDeleted() {
		return nil, apperrors.NotFound("review", reviewID)
	}

	var (
		accepted []UploadFile
		invalid  []InvalidFile
	)

	for _, f := range files {
		name := domain.SanitizeFilename(f.Filename)
		if ok, reason := domain.ValidateUpload(name, f.ContentType, f.Size); !ok {
			invalid = append(invalid, InvalidFile{Filename: name, Reason: reason})
			continue
		}
		f.Filename = name
		accepted = append(accepted, f)
	}

	if len(accepted) == 0 {
		return nil, apperrors.InvalidInput("no valid files to upload")
	}

	var uploaded []domain.Image
	steps := make([]workflow.Step, 0, len(accepted)*2)

	for _, f := range accepted {
		f := f
		key := fmt.Sprintf("reviews/%s/%s%s", reviewID, uuid.New().String(), extensionOf(f.Filename))

		// Upload the blob first; the inverse removes it from storage.
		steps = append(steps, workflow.Step{
			Name: "upload_object",
			Forward: func(ctx context.Context, input any) (any, any, error) {
				result, err := s.store.Upload(ctx, &storage.UploadInput{
					Key:         key,
					ContentType: f.ContentType,
					Size:        f.Size,
					Data:        f.Data,
				})
				if err != nil {
					return nil, nil, apperrors.Upstream("storage", err)
				}
				return result, result.Key, nil
			},
			Inverse: func(ctx context.Context, undo any) error {
				return s.store.Delete(ctx, undo.(string))
			},
		})

		// Record the row; the inverse removes it again.
		steps = append(steps, workflow.Step{
			Name: "insert_image_row",
			Forward: func(ctx context.Context, input any) (any, any, error) {
				result := input.(*storage.UploadResult)
				img := domain.NewImage(reviewID, result.URL, result.Key, f.Filename, f.ContentType, f.Size)
				if alt := strings.TrimSpace(f.AltText); alt != "" {
					img.AltText = &alt
				}
				if err := s.images.Create(ctx, img); err != nil {
					return nil, nil, err
				}
				uploaded = append(uploaded, *img)
				return nil, img.ID, nil
			},
			Inverse: func(ctx context.Context, undo any) error {
				return s.images.Delete(ctx, undo.(string))
			},
		})
	}

	if _, err := s.runner.Run(ctx, WorkflowAttachImages, steps, nil); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "review images attached",
		slog.String("review_id", reviewID),
		slog.Int("uploaded", len(uploaded)),
		slog.Int("rejected", len(invalid)),
	)

	return &UploadResult{
		Uploads:      uploaded,
		InvalidFiles: invalid,
	}, nil
}

// extensionOf returns the lowercase extension including the dot, or empty.
func extensionOf(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
