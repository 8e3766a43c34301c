// Package events reacts to catalog change events published by product-service.
package events

import (
	"context"
	"fmt"

	"github.com/tair/cosmetics-recommender/kafka"
	"github.com/tair/cosmetics-recommender/pkg/logger"
)

// Cache is the part of the cached product store the invalidator needs.
type Cache interface {
	Invalidate(ctx context.Context) error
}

// Registry is satisfied by *kafka.Consumer.
type Registry interface {
	RegisterHandler(eventType string, handler kafka.EventHandler)
}

// CatalogInvalidator drops cached catalog reads whenever a product changes,
// so the next recommendation sees fresh stock and prices.
type CatalogInvalidator struct {
	cache Cache
}

func NewCatalogInvalidator(cache Cache) *CatalogInvalidator {
	return &CatalogInvalidator{cache: cache}
}

// Register subscribes the invalidator to every catalog event type.
func (i *CatalogInvalidator) Register(registry Registry) {
	for _, eventType := range kafka.ProductEventTypes {
		registry.RegisterHandler(eventType, i.Handle)
	}
}

func (i *CatalogInvalidator) Handle(ctx context.Context, event kafka.ProductChangedEvent) error {
	if err := i.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache for %s: %w", event.EventType, err)
	}

	logger.Debug(ctx).
		Str("event_type", event.EventType).
		Uint("product_id", event.ProductID).
		Msg("Catalog cache invalidated by event")
	return nil
}
