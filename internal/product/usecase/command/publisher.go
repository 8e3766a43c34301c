package command

import (
	"context"

	"github.com/tair/cosmetics-recommender/kafka"
	"github.com/tair/cosmetics-recommender/pkg/logger"
)

// EventPublisher announces catalog changes to downstream consumers.
type EventPublisher interface {
	PublishProductChanged(ctx context.Context, event kafka.ProductChangedEvent) error
}

// publish never fails the command: the row is already committed and
// consumers only use events to drop stale derived data.
func publish(ctx context.Context, publisher EventPublisher, event kafka.ProductChangedEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishProductChanged(ctx, event); err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("event_type", event.EventType).
			Uint("product_id", event.ProductID).
			Msg("Failed to publish product change")
	}
}
