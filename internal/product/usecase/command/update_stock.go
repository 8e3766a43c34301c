package command

import (
	"context"
	"fmt"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
	"github.com/tair/cosmetics-recommender/kafka"
)

// UpdateStockCommand represents the command to update product stock
type UpdateStockCommand struct {
	ProductID uint
	Stock     int
}

// UpdateStockHandler handles stock update command
type UpdateStockHandler struct {
	repo      domain.ProductRepository
	publisher EventPublisher
}

// NewUpdateStockHandler creates a new update stock handler
func NewUpdateStockHandler(repo domain.ProductRepository, publisher EventPublisher) *UpdateStockHandler {
	return &UpdateStockHandler{repo: repo, publisher: publisher}
}

// Handle executes the update stock command
func (h *UpdateStockHandler) Handle(ctx context.Context, cmd UpdateStockCommand) (*domain.Product, error) {
	if cmd.ProductID == 0 {
		return nil, fmt.Errorf("%w: invalid product id", domain.ErrInvalidProduct)
	}
	if cmd.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidProduct)
	}

	product, err := h.repo.UpdateStock(ctx, cmd.ProductID, cmd.Stock)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	stock := product.Stock
	publish(ctx, h.publisher, kafka.ProductChangedEvent{
		EventType: kafka.EventTypeProductStockUpdated,
		ProductID: product.ID,
		Category:  product.Category,
		Stock:     &stock,
	})
	return product, nil
}
