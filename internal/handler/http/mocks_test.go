package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/utafrali/ReviewsGo/internal/catalog"
	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/internal/storage/memory"
	"github.com/utafrali/ReviewsGo/pkg/middleware"
	"github.com/utafrali/ReviewsGo/pkg/workflow"
)

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListVisibleByProduct(ctx context.Context, productID, order string, limit, offset int) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, order, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter, limit, offset int) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) UpdateStatus(ctx context.Context, id, status string, rejectionReason *string) error {
	args := m.Called(ctx, id, status, rejectionReason)
	return args.Error(0)
}

func (m *mockReviewRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *mockReviewRepository) Restore(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) HardDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) RatingSummary(ctx context.Context, productID string) (repository.RatingSummary, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(repository.RatingSummary), args.Error(1)
}

// --- Mock Image Repository ---

type mockImageRepository struct {
	mock.Mock
}

func (m *mockImageRepository) Create(ctx context.Context, image *domain.Image) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *mockImageRepository) ListByReview(ctx context.Context, reviewID string) ([]domain.Image, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Image), args.Error(1)
}

func (m *mockImageRepository) ListByReviews(ctx context.Context, reviewIDs []string) (map[string][]domain.Image, error) {
	args := m.Called(ctx, reviewIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]domain.Image), args.Error(1)
}

func (m *mockImageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockImageRepository) DeleteByReview(ctx context.Context, reviewID string) error {
	args := m.Called(ctx, reviewID)
	return args.Error(0)
}

// --- Mock Request Repository ---

type mockRequestRepository struct {
	mock.Mock
}

func (m *mockRequestRepository) Create(ctx context.Context, request *domain.ReviewRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *mockRequestRepository) GetByID(ctx context.Context, id string) (*domain.ReviewRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewRequest), args.Error(1)
}

func (m *mockRequestRepository) FindPending(ctx context.Context, customerID, productID string) (*domain.ReviewRequest, error) {
	args := m.Called(ctx, customerID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewRequest), args.Error(1)
}

func (m *mockRequestRepository) ListByCustomer(ctx context.Context, customerID, status string, limit, offset int) ([]domain.ReviewRequest, int, error) {
	args := m.Called(ctx, customerID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.ReviewRequest), args.Int(1), args.Error(2)
}

func (m *mockRequestRepository) Update(ctx context.Context, request *domain.ReviewRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

// --- Mock Submission Guard ---

type mockGuard struct {
	mock.Mock
}

func (m *mockGuard) TryAcquire(ctx context.Context, customerID, productID string) (bool, error) {
	args := m.Called(ctx, customerID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockGuard) Release(ctx context.Context, customerID, productID string) error {
	args := m.Called(ctx, customerID, productID)
	return args.Error(0)
}

// --- Mock Event Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockPublisher) PublishReviewApproved(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockPublisher) PublishReviewRejected(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockPublisher) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

// --- Test Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRunner() *workflow.Runner {
	return workflow.NewRunner(testLogger())
}

// permissiveGuard returns a guard mock that accepts every submission.
func permissiveGuard() *mockGuard {
	g := new(mockGuard)
	g.On("TryAcquire", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	g.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return g
}

// quietPublisher returns a publisher mock that swallows every event.
func quietPublisher() *mockPublisher {
	p := new(mockPublisher)
	p.On("PublishReviewCreated", mock.Anything, mock.Anything).Return(nil)
	p.On("PublishReviewApproved", mock.Anything, mock.Anything).Return(nil)
	p.On("PublishReviewRejected", mock.Anything, mock.Anything).Return(nil)
	p.On("PublishReviewDeleted", mock.Anything, mock.Anything).Return(nil)
	return p
}

func testReviewService(reviews *mockReviewRepository, images *mockImageRepository, requests *mockRequestRepository) *service.ReviewService {
	return service.NewReviewService(
		reviews, images, requests,
		permissiveGuard(), catalog.NoopVerifier{}, quietPublisher(),
		testRunner(), testLogger(),
	)
}

func testModerationService(reviews *mockReviewRepository, images *mockImageRepository) *service.ModerationService {
	return service.NewModerationService(
		reviews, images, memory.New("http://localhost:8086"),
		quietPublisher(), testRunner(), testLogger(),
	)
}

func testUploadService(reviews *mockReviewRepository, images *mockImageRepository) *service.UploadService {
	return service.NewUploadService(
		reviews, images, memory.New("http://localhost:8086"),
		testRunner(), testLogger(),
	)
}

// setupStoreRouter creates a chi router matching the production storefront
// route layout, including the identity middleware.
func setupStoreRouter(store *StoreHandler, upload *UploadHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Identity)
	r.Route("/api/v1/store", func(r chi.Router) {
		r.Get("/products/{productId}/reviews", store.ListProductReviews)
		r.Get("/reviews/{id}", store.GetReview)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCustomer)
			r.Post("/reviews", store.SubmitReview)
			r.Get("/review-requests", store.ListReviewRequests)
			if upload != nil {
				r.Post("/reviews/{id}/images", upload.AttachImages)
			}
		})
	})
	return r
}

// setupAdminRouter creates a chi router matching the production moderation
// route layout.
func setupAdminRouter(admin *AdminHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Identity)
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.RequireStaff)
		r.Get("/reviews", admin.ListReviews)
		r.Post("/reviews/status", admin.SetStatus)
		r.Post("/reviews/{id}/approve", admin.ApproveReview)
		r.Post("/reviews/{id}/reject", admin.RejectReview)
		r.Delete("/reviews/{id}", admin.DeleteReview)
	})
	return r
}

// asStaff stamps the staff identity headers the gateway would add.
func asStaff(req *http.Request) *http.Request {
	req.Header.Set("X-User-ID", "staff_1")
	req.Header.Set("X-User-Role", middleware.RoleStaff)
	return req
}

// asCustomer stamps the customer identity headers the gateway would add.
func asCustomer(req *http.Request) *http.Request {
	req.Header.Set("X-User-ID", "cust_1")
	req.Header.Set("X-User-Role", middleware.RoleCustomer)
	return req
}
