package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/marketplace/internal/domain"
	pkgkafka "github.com/utafrali/marketplace/pkg/kafka"
	"github.com/utafrali/marketplace/pkg/logger"
)

// Topics this service publishes to.
var (
	TopicProductCreated   = pkgkafka.Topic("product", "created")
	TopicProductUpdated   = pkgkafka.Topic("product", "updated")
	TopicProductDeleted   = pkgkafka.Topic("product", "deleted")
	TopicMarketRegistered = pkgkafka.Topic("market", "registered")
)

const source = "marketplace"

// Publisher sends an event envelope to a topic. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// ProductDeletedData is the payload of product.deleted.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// MarketRegisteredData is the payload of market.registered. It never
// carries credentials.
type MarketRegisteredData struct {
	ID         string                  `json:"id"`
	Email      string                  `json:"email"`
	BrandName  string                  `json:"brandName"`
	Categories []domain.MarketCategory `json:"marketCategories"`
}

// Producer publishes marketplace domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a domain event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishProductCreated publishes product.created with the full product.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, productAggregate(product.ID), product.MarketID, product)
}

// PublishProductUpdated publishes product.updated with the full product.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, productAggregate(product.ID), product.MarketID, product)
}

// PublishProductDeleted publishes product.deleted. The owning market is taken
// from the authenticated request, if any.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicProductDeleted, productAggregate(id), logger.MarketIDFromContext(ctx), ProductDeletedData{ID: id})
}

// PublishMarketRegistered publishes market.registered.
func (p *Producer) PublishMarketRegistered(ctx context.Context, m *domain.Market) error {
	agg := pkgkafka.Aggregate{ID: m.ID, Type: "market"}
	return p.publish(ctx, TopicMarketRegistered, agg, m.ID, MarketRegisteredData{
		ID:         m.ID,
		Email:      m.Email,
		BrandName:  m.BrandName,
		Categories: m.Categories,
	})
}

func productAggregate(id string) pkgkafka.Aggregate {
	return pkgkafka.Aggregate{ID: id, Type: "product"}
}

func (p *Producer) publish(ctx context.Context, topic string, agg pkgkafka.Aggregate, marketID string, data any) error {
	opts := []pkgkafka.Option{pkgkafka.WithMarketID(marketID)}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		opts = append(opts, pkgkafka.WithCorrelationID(id))
	}

	ev, err := pkgkafka.NewEvent(topic, source, agg, data, opts...)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.publisher.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", agg.ID),
	)
	return nil
}
