package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ListProductsQuery represents the query to list products, newest first
type ListProductsQuery struct {
	Query    string
	Category string
	Limit    int
	Offset   int
}

// ListProductsResult is one page of the catalog plus the unpaged total.
type ListProductsResult struct {
	Products []domain.Product `json:"products"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListProductsHandler handles list products query
type ListProductsHandler struct {
	repo domain.ProductRepository
}

// NewListProductsHandler creates a new list products handler
func NewListProductsHandler(repo domain.ProductRepository) *ListProductsHandler {
	return &ListProductsHandler{repo: repo}
}

// Handle executes the list products query
func (h *ListProductsHandler) Handle(ctx context.Context, query ListProductsQuery) (*ListProductsResult, error) {
	switch {
	case query.Limit <= 0:
		query.Limit = DefaultListLimit
	case query.Limit > MaxListLimit:
		query.Limit = MaxListLimit
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	products, total, err := h.repo.List(ctx, domain.ListFilter{
		Query:    strings.TrimSpace(query.Query),
		Category: strings.TrimSpace(query.Category),
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}

	return &ListProductsResult{
		Products: products,
		Total:    total,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}, nil
}
