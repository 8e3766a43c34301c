package command

import (
	"context"
	"fmt"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
	"github.com/tair/cosmetics-recommender/kafka"
)

// UpdateProductCommand carries a partial update; nil fields are left as they are.
type UpdateProductCommand struct {
	ID           uint
	Name         *string
	Brand        *string
	Description  *string
	Price        *float64
	Stock        *int
	Category     *string
	Rank         *int
	Ingredients  *string
	Combination  *bool
	Dry          *bool
	Normal       *bool
	Oily         *bool
	Sensitive    *bool
	MainImageURL *string
}

// Fields maps the supplied values onto column names.
func (cmd UpdateProductCommand) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	set := func(column string, present bool, value interface{}) {
		if present {
			fields[column] = value
		}
	}
	set("name", cmd.Name != nil, deref(cmd.Name))
	set("brand", cmd.Brand != nil, deref(cmd.Brand))
	set("description", cmd.Description != nil, deref(cmd.Description))
	set("category", cmd.Category != nil, deref(cmd.Category))
	set("ingredients", cmd.Ingredients != nil, deref(cmd.Ingredients))
	set("main_image_url", cmd.MainImageURL != nil, deref(cmd.MainImageURL))
	if cmd.Price != nil {
		fields["price"] = *cmd.Price
	}
	if cmd.Stock != nil {
		fields["stock"] = *cmd.Stock
	}
	if cmd.Rank != nil {
		fields["rank"] = *cmd.Rank
	}
	for column, flag := range map[string]*bool{
		"combination": cmd.Combination,
		"dry":         cmd.Dry,
		"normal":      cmd.Normal,
		"oily":        cmd.Oily,
		"sensitive":   cmd.Sensitive,
	} {
		if flag != nil {
			fields[column] = *flag
		}
	}
	return fields
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// UpdateProductHandler handles product update command
type UpdateProductHandler struct {
	repo      domain.ProductRepository
	publisher EventPublisher
}

// NewUpdateProductHandler creates a new update product handler
func NewUpdateProductHandler(repo domain.ProductRepository, publisher EventPublisher) *UpdateProductHandler {
	return &UpdateProductHandler{repo: repo, publisher: publisher}
}

// Handle executes the update product command
func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	if cmd.ID == 0 {
		return nil, fmt.Errorf("%w: invalid product id", domain.ErrInvalidProduct)
	}

	fields := cmd.Fields()
	if len(fields) == 0 {
		return nil, domain.ErrNoFieldsToUpdate
	}
	if cmd.Name != nil && *cmd.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidProduct)
	}
	if cmd.Price != nil && *cmd.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidProduct)
	}
	if cmd.Stock != nil && *cmd.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidProduct)
	}

	product, err := h.repo.Update(ctx, cmd.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	stock := product.Stock
	publish(ctx, h.publisher, kafka.ProductChangedEvent{
		EventType: kafka.EventTypeProductUpdated,
		ProductID: product.ID,
		Category:  product.Category,
		Stock:     &stock,
	})
	return product, nil
}
