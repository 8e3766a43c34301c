package events

import (
	"context"
	"errors"
	"testing"

	"github.com/tair/cosmetics-recommender/kafka"
)

type countingCache struct {
	calls int
	err   error
}

func (c *countingCache) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

type mapRegistry map[string]kafka.EventHandler

func (r mapRegistry) RegisterHandler(eventType string, handler kafka.EventHandler) {
	r[eventType] = handler
}

func TestRegisterCoversEveryEventType(t *testing.T) {
	cache := &countingCache{}
	registry := mapRegistry{}
	NewCatalogInvalidator(cache).Register(registry)

	for _, eventType := range kafka.ProductEventTypes {
		handler, ok := registry[eventType]
		if !ok {
			t.Fatalf("no handler for %s", eventType)
		}
		if err := handler(context.Background(), kafka.ProductChangedEvent{EventType: eventType, ProductID: 7}); err != nil {
			t.Fatalf("handler(%s) error = %v", eventType, err)
		}
	}
	if cache.calls != len(kafka.ProductEventTypes) {
		t.Errorf("invalidations = %d, want %d", cache.calls, len(kafka.ProductEventTypes))
	}
}

func TestHandleWrapsCacheErrors(t *testing.T) {
	cache := &countingCache{err: errors.New("redis down")}
	err := NewCatalogInvalidator(cache).Handle(context.Background(), kafka.ProductChangedEvent{EventType: kafka.EventTypeProductDeleted})
	if !errors.Is(err, cache.err) {
		t.Fatalf("error = %v, want wrapped cache error", err)
	}
}
