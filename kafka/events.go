package kafka

import "time"

// ProductChangedEvent is emitted by the catalog whenever a product row is
// created, modified or removed. Consumers use it to drop anything derived
// from the previous catalog state.
type ProductChangedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ProductID uint      `json:"product_id"`
	Category  string    `json:"category,omitempty"`
	Stock     *int      `json:"stock,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeProductCreated      = "product.created"
	EventTypeProductUpdated      = "product.updated"
	EventTypeProductDeleted      = "product.deleted"
	EventTypeProductStockUpdated = "product.stock_updated"
)

// ProductEventTypes lists every catalog event type.
var ProductEventTypes = []string{
	EventTypeProductCreated,
	EventTypeProductUpdated,
	EventTypeProductDeleted,
	EventTypeProductStockUpdated,
}

// Kafka topics
const (
	TopicProductChanged = "product-changed"
)
