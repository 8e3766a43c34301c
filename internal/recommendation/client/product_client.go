// Package client holds the recommendation service's outbound collaborators:
// the product store over HTTP, its Redis cache, the image loader and the
// Gemini client.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
)

// timestampLayout is what scoring parses first. Store timestamps are
// rewritten to it in UTC.
const timestampLayout = "2006-01-02T15:04:05.999999Z"

// maxPageSize is product-service's largest accepted list limit.
const maxPageSize = 100

// ProductClient reads the catalog from product-service.
type ProductClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewProductClient creates a client with a per-request timeout.
func NewProductClient(baseURL string, timeout time.Duration) *ProductClient {
	return NewProductClientWithHTTP(baseURL, &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// NewProductClientWithHTTP uses the given http.Client as is.
func NewProductClientWithHTTP(baseURL string, httpClient *http.Client) *ProductClient {
	return &ProductClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// envelope is product-service's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type listPage struct {
	Products []domain.Product `json:"products"`
	Total    int64            `json:"total"`
}

// List returns up to params.Limit products, newest first. product-service
// caps each page at maxPageSize, so larger limits are fetched page by page
// until the limit is met or the store runs out.
func (c *ProductClient) List(ctx context.Context, params domain.ListParams) ([]domain.Product, error) {
	if params.Limit <= 0 {
		page, err := c.listPage(ctx, params)
		if err != nil {
			return nil, err
		}
		return page.Products, nil
	}

	products := make([]domain.Product, 0, min(params.Limit, maxPageSize))
	offset := params.Offset
	for len(products) < params.Limit {
		pageParams := params
		pageParams.Offset = offset
		pageParams.Limit = min(params.Limit-len(products), maxPageSize)

		page, err := c.listPage(ctx, pageParams)
		if err != nil {
			return nil, err
		}
		products = append(products, page.Products...)
		offset += len(page.Products)

		if len(page.Products) < pageParams.Limit || (page.Total > 0 && int64(offset) >= page.Total) {
			break
		}
	}
	return products, nil
}

func (c *ProductClient) listPage(ctx context.Context, params domain.ListParams) (*listPage, error) {
	query := url.Values{}
	if params.Category != "" {
		query.Set("category", params.Category)
	}
	if params.Query != "" {
		query.Set("q", params.Query)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}

	endpoint := c.baseURL + "/api/products"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var page listPage
	if err := c.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	for i := range page.Products {
		normalizeTimestamps(&page.Products[i])
	}
	if page.Products == nil {
		page.Products = []domain.Product{}
	}
	return &page, nil
}

// GetByID returns ErrProductNotFound when the store has no such product.
func (c *ProductClient) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	if err := c.get(ctx, fmt.Sprintf("%s/api/products/%d", c.baseURL, id), &product); err != nil {
		return nil, err
	}
	normalizeTimestamps(&product)
	return &product, nil
}

// Ping reports whether product-service answers its health check.
func (c *ProductClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", domain.ErrStoreUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *ProductClient) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", domain.ErrStoreUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrStoreUnavailable, err)
	}
	if !env.Success {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, env.Error)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// normalizeTimestamps rewrites RFC 3339 timestamps with any offset into UTC.
// Values in other layouts are left for the scorer to judge.
func normalizeTimestamps(p *domain.Product) {
	p.CreatedAt = toUTC(p.CreatedAt)
	p.UpdatedAt = toUTC(p.UpdatedAt)
}

func toUTC(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil || t.IsZero() {
		if err == nil {
			return ""
		}
		return s
	}
	return t.UTC().Format(timestampLayout)
}
