package command

import (
	"context"
	"fmt"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
	"github.com/tair/cosmetics-recommender/kafka"
)

// DeleteProductCommand represents the command to delete a product
type DeleteProductCommand struct {
	ID uint
}

// DeleteProductHandler handles product deletion command
type DeleteProductHandler struct {
	repo      domain.ProductRepository
	publisher EventPublisher
}

// NewDeleteProductHandler creates a new delete product handler
func NewDeleteProductHandler(repo domain.ProductRepository, publisher EventPublisher) *DeleteProductHandler {
	return &DeleteProductHandler{repo: repo, publisher: publisher}
}

// Handle executes the delete product command
func (h *DeleteProductHandler) Handle(ctx context.Context, cmd DeleteProductCommand) error {
	if cmd.ID == 0 {
		return fmt.Errorf("%w: invalid product id", domain.ErrInvalidProduct)
	}

	if err := h.repo.Delete(ctx, cmd.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	publish(ctx, h.publisher, kafka.ProductChangedEvent{
		EventType: kafka.EventTypeProductDeleted,
		ProductID: cmd.ID,
	})
	return nil
}
