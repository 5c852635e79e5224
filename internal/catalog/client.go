// Package catalog is the HTTP client of the product catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/dtroode/storefront/internal/logger"
	"github.com/dtroode/storefront/internal/model"
)

const maxErrorBody = 512

// StatusError is returned for non-2xx catalog responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog %s %s: status %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("catalog %s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Is makes a 404 match model.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == model.ErrNotFound && e.Code == http.StatusNotFound
}

// Client reads products from the catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	group      singleflight.Group
	logger     *logger.Logger
}

var _ model.CatalogClient = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit limits outgoing requests to rps with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a catalog client for baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListProducts fetches the product list in the given order.
func (c *Client) ListProducts(ctx context.Context, sort model.SortKey) ([]model.Product, error) {
	if !sort.Valid() {
		return nil, fmt.Errorf("unknown sort key %q", sort)
	}

	endpoint := c.baseURL + "/api/products"
	if sort != model.SortDefault {
		endpoint += "?" + url.Values{"sort": {string(sort)}}.Encode()
	}

	var products []model.Product
	if err := c.get(ctx, endpoint, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}

	c.logger.Debug("Catalog client: products fetched",
		"sort", string(sort),
		"count", len(products))

	return products, nil
}

// GetProduct fetches a single product. Concurrent calls for the same id share
// one request.
func (c *Client) GetProduct(ctx context.Context, id model.ProductID) (model.Product, error) {
	if id == "" {
		return model.Product{}, fmt.Errorf("product id is required")
	}

	ch := c.group.DoChan(string(id), func() (any, error) {
		var p model.Product
		endpoint := c.baseURL + "/api/products/" + url.PathEscape(string(id))
		err := c.get(context.WithoutCancel(ctx), endpoint, &p)
		return p, err
	})

	select {
	case <-ctx.Done():
		return model.Product{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.Product{}, res.Err
		}
		return res.Val.(model.Product), nil
	}
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Catalog client: request failed",
			"url", endpoint,
			"error", err.Error())
		return fmt.Errorf("failed to call catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("Catalog client: unexpected status",
			"url", endpoint,
			"status", resp.StatusCode)
		return &StatusError{
			Method: http.MethodGet,
			URL:    endpoint,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to decode catalog response: empty body")
		}
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return nil
}
