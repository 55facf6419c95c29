// Package catalog verifies product existence against the catalog service
// before a review is accepted.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
	"github.com/utafrali/ReviewsGo/pkg/httpclient"
)

// Verifier checks that a product exists.
type Verifier interface {
	VerifyProduct(ctx context.Context, productID string) error
}

// HTTPDoer is the interface for executing HTTP requests. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client verifies products over HTTP, normally through a circuit breaker.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a catalog client for the given base URL.
func NewClient(httpClient HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// VerifyProduct checks that the product exists in the catalog. A 404 from
// the catalog maps to a not-found error; other failures surface as upstream
// errors so the caller can distinguish a bad product ID from a flaky catalog.
func (c *Client) VerifyProduct(ctx context.Context, productID string) error {
	url := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create product verify request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return apperrors.Upstream("catalog", err)
	}

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return apperrors.NotFound("product", productID)
	}

	return httpclient.ParseResponseError(resp, "catalog")
}

// NoopVerifier accepts every product ID. Used when no catalog service is
// configured, such as local development or single-service deployments.
type NoopVerifier struct{}

// VerifyProduct always succeeds.
func (NoopVerifier) VerifyProduct(_ context.Context, _ string) error {
	return nil
}
