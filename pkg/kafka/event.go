package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicPrefix prefixes every topic this service publishes to.
const TopicPrefix = "marketplace"

// SchemaVersion is stamped on every envelope.
const SchemaVersion = 1

// Topic builds a topic name such as "marketplace.product.created".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}

// Aggregate identifies the entity an event is about. Its ID is the message key.
type Aggregate struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Event is the envelope for every published message.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Aggregate     Aggregate       `json:"aggregate"`
	MarketID      string          `json:"market_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

// Option customizes an Event built by NewEvent.
type Option func(*Event)

// WithCorrelationID tags the event with the request that caused it.
func WithCorrelationID(id string) Option {
	return func(e *Event) { e.CorrelationID = id }
}

// WithMarketID tags the event with the owning market.
func WithMarketID(id string) Option {
	return func(e *Event) { e.MarketID = id }
}

// NewEvent marshals data into a fresh envelope stamped with the current UTC time.
func NewEvent(eventType, source string, agg Aggregate, data any, opts ...Option) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	e := &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Aggregate:     agg,
		OccurredAt:    time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Data:          payload,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// DecodeEvent parses a message value back into an envelope.
func DecodeEvent(b []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &e, nil
}

// DecodeData unmarshals the payload into v.
func (e *Event) DecodeData(v any) error {
	return json.Unmarshal(e.Data, v)
}
