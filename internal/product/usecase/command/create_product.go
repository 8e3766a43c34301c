package command

import (
	"context"
	"fmt"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
	"github.com/tair/cosmetics-recommender/kafka"
)

// CreateProductCommand represents the command to create a new product
type CreateProductCommand struct {
	Name         string
	Brand        string
	Description  string
	Price        float64
	Stock        int
	Category     string
	Rank         *int
	Ingredients  string
	Combination  *bool
	Dry          *bool
	Normal       *bool
	Oily         *bool
	Sensitive    *bool
	MainImageURL string
}

// CreateProductHandler handles product creation command
type CreateProductHandler struct {
	repo      domain.ProductRepository
	publisher EventPublisher
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(repo domain.ProductRepository, publisher EventPublisher) *CreateProductHandler {
	return &CreateProductHandler{repo: repo, publisher: publisher}
}

// Handle executes the create product command
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	product := &domain.Product{
		Name:         cmd.Name,
		Brand:        cmd.Brand,
		Description:  cmd.Description,
		Price:        cmd.Price,
		Stock:        cmd.Stock,
		Category:     cmd.Category,
		Rank:         cmd.Rank,
		Ingredients:  cmd.Ingredients,
		Combination:  cmd.Combination,
		Dry:          cmd.Dry,
		Normal:       cmd.Normal,
		Oily:         cmd.Oily,
		Sensitive:    cmd.Sensitive,
		MainImageURL: cmd.MainImageURL,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	stock := product.Stock
	publish(ctx, h.publisher, kafka.ProductChangedEvent{
		EventType: kafka.EventTypeProductCreated,
		ProductID: product.ID,
		Category:  product.Category,
		Stock:     &stock,
	})
	return product, nil
}
