package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/storefront-catalog/pkg/kafka"
	"github.com/utafrali/storefront-catalog/pkg/logger"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/catalog"
)

// Kafka topics consumed by the catalog service.
const (
	TopicProductCreated = "ecommerce.product.created"
	TopicProductUpdated = "ecommerce.product.updated"
	TopicProductDeleted = "ecommerce.product.deleted"
)

// Topics lists every topic the Consumer handles.
var Topics = []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}

// Refresher reloads the catalog from its upstream source.
type Refresher interface {
	Refresh(ctx context.Context) (catalog.RefreshResult, error)
}

// ProductChangedData is the part of a product event payload the catalog reads.
type ProductChangedData struct {
	ID string `json:"id"`
}

// Consumer refreshes the catalog when the upstream product set changes.
type Consumer struct {
	refresher Refresher
	logger    *slog.Logger
}

// NewConsumer creates a new event consumer for the catalog service.
func NewConsumer(refresher Refresher, logger *slog.Logger) *Consumer {
	return &Consumer{
		refresher: refresher,
		logger:    logger,
	}
}

// Handle dispatches an incoming event. Unknown event types are logged and
// acknowledged.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated, TopicProductDeleted:
		return c.handleProductChanged(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type, skipping",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleProductChanged(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductChangedData
	if len(event.Data) > 0 {
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
		}
	}
	if data.ID == "" {
		data.ID = event.AggregateID
	}

	// The refresh and the catalog.refreshed event it publishes share the
	// triggering event's correlation id.
	correlationID := event.CorrelationID
	if correlationID == "" {
		correlationID = event.EventID
	}
	ctx = logger.WithCorrelationID(ctx, correlationID)

	c.logger.InfoContext(ctx, "product changed upstream, refreshing catalog",
		slog.String("event_type", event.EventType),
		slog.String("product_id", data.ID),
	)

	res, err := c.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog after %s: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "catalog refreshed from product event",
		slog.Uint64("generation", res.Generation),
		slog.Bool("shared", res.Shared),
	)
	return nil
}
