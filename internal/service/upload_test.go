package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/storage"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

type uploadServiceMocks struct {
	reviews *mockReviewRepository
	images  *mockImageRepository
	store   *mockStorage
}

func newTestUploadService(t *testing.T) (*UploadService, *uploadServiceMocks) {
	t.Helper()
	m := &uploadServiceMocks{
		reviews: new(mockReviewRepository),
		images:  new(mockImageRepository),
		store:   new(mockStorage),
	}
	svc := NewUploadService(m.reviews, m.images, m.store, newTestRunner(), newTestLogger())
	return svc, m
}

func jpegFile(name string, size int64) UploadFile {
	return UploadFile{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        size,
		Data:        bytes.NewReader(make([]byte, size)),
	}
}

func TestAttachImages_Success(t *testing.T) {
	svc, m := newTestUploadService(t)

	review := domain.NewReview("prod_1", "Jane", "ok", 4)
	m.reviews.On("GetByID", mock.Anything, review.ID).Return(review, nil)
	m.store.On("Upload", mock.Anything, mock.AnythingOfType("*storage.UploadInput")).
		Return(&storage.UploadResult{Key: "reviews/key", URL: "https://cdn/reviews/key"}, nil)
	m.images.On("Create", mock.Anything, mock.AnythingOfType("*domain.Image")).Return(nil)

	result, err := svc.AttachImages(context.Background(), review.ID, []UploadFile{
		jpegFile("front.jpg", 1024),
		jpegFile("back.jpg", 2048),
	})
	require.NoError(t, err)

	assert.Len(t, result.Uploads, 2)
	assert.Empty(t, result.InvalidFiles)
	assert.Equal(t, "https://cdn/reviews/key", result.Uploads[0].URL)
	m.store.AssertNumberOfCalls(t, "Upload", 2)
}

func TestAttachImages_AltTextStored(t *testing.T) {
	svc, m := newTestUploadService(t)

	review := domain.NewReview("prod_1", "Jane", "ok", 4)
	m.reviews.On("GetByID", mock.Anything, review.ID).Return(review, nil)
	m.store.On("Upload", mock.Anything, mock.Anything).
		Return(&storage.UploadResult{Key: "k", URL: "https://cdn/k"}, nil)
	m.images.On("Create", mock.Anything, mock.AnythingOfType("*domain.Image")).Return(nil)

	withAlt := jpegFile("front.jpg", 64)
	withAlt.AltText = "product front view"

	result, err := svc.AttachImages(context.Background(), review.ID, []UploadFile{
		withAlt,
		jpegFile("back.jpg", 64),
	})
	require.NoError(t, err)
	require.Len(t, result.Uploads, 2)

	require.NotNil(t, result.Uploads[0].AltText)
	assert.Equal(t, "product front view", *result.Uploads[0].AltText)
	assert.Nil(t, result.Uploads[1].AltText)
}

func TestAttachImages_MixedValidityReportsWarnings(t *testing.T) {
	svc, m := newTestUploadService(t)

	review := domain.NewReview("prod_1", "Jane", "ok", 4)
	m.reviews.On("GetByID", mock.Anything, review.ID).Return(review, nil)
	m.store.On("Upload", mock.Anything, mock.Anything).
		Return(&storage.UploadResult{Key: "k", URL: "https://cdn/k"}, nil)
	m.images.On("Create", mock.Anything, mock.Anything).Return(nil)

	oversized := jpegFile("huge.jpg", domain.MaxFileSize+1)
	badType := UploadFile{
		Filename:    "notes.pdf",
		ContentType: "application/pdf",
		Size:        100,
		Data:        strings.NewReader("pdf"),
	}

	result, err := svc.AttachImages(context.Background(), review.ID, []UploadFile{
		jpegFile("good.jpg", 512),
		oversized,
		badType,
	})
	require.NoError(t, err)

	assert.Len(t, result.Uploads, 1)
	require.Len(t, result.InvalidFiles, 2)
	assert.Equal(t, "huge.jpg", result.InvalidFiles[0].Filename)
	assert.Equal(t, "file exceeds 5MB limit", result.InvalidFiles[0].Reason)
	assert.Equal(t, "notes.pdf", result.InvalidFiles[1].Filename)
	assert.Equal(t, "unsupported content type", result.InvalidFiles[1].Reason)
}

func TestAttachImages_AllInvalid(t *testing.T) {
	svc, m := newTestUploadService(t)

	review := domain.NewReview("prod_1", "Jane", "ok", 4)
	m.reviews.On("GetByID", mock.Anything, review.ID).Return(review, nil)

	result, err := svc.AttachImages(context.Background(), review.ID, []UploadFile{
		{Filename: "malware.exe", ContentType: "application/octet-stream", Size: 10, Data: strings.NewReader("x")},
	})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	m.store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestAttachImages_TooManyFiles(t *testing.T) {
	svc, m := newTestUploadService(t)

	files := make([]UploadFile, domain.MaxUploadFiles+1)
	for i := range files {
		files[i] = jpegFile("photo.jpg", 100)
	}

	result, err := svc.AttachImages(context.Background(), "rev_1", files)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	m.reviews.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAttachImages_NoFiles(t *testing.T) {
	svc, _ := newTestUploadService(t)

	_, err := svc.AttachImages(context.Background(), "rev_1", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAttachImages_ReviewNotFound(t *testing.T) {
	svc, m := newTestUploadService(t)

	m.reviews.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("review", "missing"))

	_, err := svc.AttachImages(context.Background(), "missing", []UploadFile{jpegFile("a.jpg", 10)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAttachImages_DeletedReview(t *testing.T) {
	svc, m := newTestUploadService(t)

	review := domain.NewReview("prod_1", "Jane", "ok", 4)
	now := review.UpdatedAt
	review.DeletedAt = &now
	m.reviews.On("GetByID", mock.Anything, review.ID).Return(review, nil)

	_, err := svc.AttachImages(context.Background(), review.ID, []UploadFile{jpegFile("a.jpg", 10)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAttachImages_InsertFailureRemovesUploadedObject(t *testing.T) {
	svc, m := newTestUploadService(t)

	review := domain.NewReview("prod_1", "Jane", "ok", 4)
	boom := errors.New("insert failed")

	m.reviews.On("GetByID", mock.Anything, review.ID).Return(review, nil)
	m.store.On("Upload", mock.Anything, mock.Anything).
		Return(&storage.UploadResult{Key: "reviews/orphan", URL: "https://cdn/orphan"}, nil)
	m.images.On("Create", mock.Anything, mock.Anything).Return(boom)
	m.store.On("Delete", mock.Anything, "reviews/orphan").Return(nil)

	result, err := svc.AttachImages(context.Background(), review.ID, []UploadFile{jpegFile("a.jpg", 10)})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)

	// The uploaded blob was compensated away.
	m.store.AssertCalled(t, "Delete", mock.Anything, "reviews/orphan")
}

func TestAttachImages_SecondUploadFailureRollsBackFirst(t *testing.T) {
	svc, m := newTestUploadService(t)

	review := domain.NewReview("prod_1", "Jane", "ok", 4)
	boom := errors.New("storage unreachable")

	m.reviews.On("GetByID", mock.Anything, review.ID).Return(review, nil)
	m.store.On("Upload", mock.Anything, mock.Anything).
		Return(&storage.UploadResult{Key: "reviews/first", URL: "https://cdn/first"}, nil).Once()
	m.images.On("Create", mock.Anything, mock.AnythingOfType("*domain.Image")).
		Run(func(args mock.Arguments) {
			img := args.Get(1).(*domain.Image)
			img.ID = "img_first"
		}).
		Return(nil).Once()
	m.store.On("Upload", mock.Anything, mock.Anything).Return(nil, boom).Once()

	// Reverse-order compensation: first the row, then the blob.
	m.images.On("Delete", mock.Anything, "img_first").Return(nil).Once()
	m.store.On("Delete", mock.Anything, "reviews/first").Return(nil).Once()

	_, err := svc.AttachImages(context.Background(), review.ID, []UploadFile{
		jpegFile("a.jpg", 10),
		jpegFile("b.jpg", 10),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	m.images.AssertExpectations(t)
	m.store.AssertExpectations(t)
}
