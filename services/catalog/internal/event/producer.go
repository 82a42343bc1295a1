package event

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	pkgkafka "github.com/utafrali/storefront-catalog/pkg/kafka"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/catalog"
)

// Kafka topic published by the catalog service.
var TopicCatalogRefreshed = pkgkafka.Topic("catalog", "refreshed")

// Aggregate type constant.
const AggregateTypeCatalog = "catalog"

// Source identifier for events originating from the catalog service.
const SourceCatalogService = "catalog-service"

// MetadataBodySHA256 carries the hex SHA-256 of the upstream document, so
// consumers can skip generations whose content did not change.
const MetadataBodySHA256 = "body_sha256"

// CatalogRefreshedData is the payload for a catalog.refreshed event.
type CatalogRefreshedData struct {
	Generation uint64 `json:"generation"`
	Products   int    `json:"products"`
	Bytes      int    `json:"bytes"`
	TookMS     int64  `json:"took_ms"`
}

// Publisher sends events to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes catalog domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the catalog service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCatalogRefreshed publishes a catalog.refreshed event.
func (p *Producer) PublishCatalogRefreshed(ctx context.Context, res catalog.RefreshResult) error {
	data := CatalogRefreshedData{
		Generation: res.Generation,
		Products:   res.Products,
		Bytes:      len(res.Body),
		TookMS:     res.Took.Milliseconds(),
	}

	aggregateID := strconv.FormatUint(res.Generation, 10)
	event, err := pkgkafka.NewEvent(TopicCatalogRefreshed, aggregateID, AggregateTypeCatalog, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create catalog.refreshed event: %w", err)
	}

	sum := sha256.Sum256(res.Body)
	event.WithMetadata(MetadataBodySHA256, hex.EncodeToString(sum[:]))

	if err := p.kafka.Publish(ctx, TopicCatalogRefreshed, event); err != nil {
		return fmt.Errorf("publish catalog.refreshed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published catalog.refreshed event",
		slog.Uint64("generation", res.Generation),
		slog.Int("products", res.Products),
	)

	return nil
}
