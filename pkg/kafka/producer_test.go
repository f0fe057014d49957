package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func header(msg kafka.Message, key string) string {
	return headerCarrier{headers: &msg.Headers}.Get(key)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "marketplace.product.created", Topic("product", "created"))
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("product.created", "marketplace", Aggregate{ID: "p-1", Type: "product"},
		map[string]string{"name": "Lamp"}, WithMarketID("market-1"))
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, SchemaVersion, ev.SchemaVersion)
	assert.Equal(t, "market-1", ev.MarketID)
	assert.Empty(t, ev.CorrelationID)
	assert.False(t, ev.OccurredAt.IsZero())

	var data map[string]string
	require.NoError(t, ev.DecodeData(&data))
	assert.Equal(t, "Lamp", data["name"])

	_, err = NewEvent("bad", "x", Aggregate{}, make(chan int))
	assert.Error(t, err)
}

func TestDecodeEvent_Invalid(t *testing.T) {
	_, err := DecodeEvent([]byte("{"))
	assert.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	p := NewProducerWithWriter(w, prometheus.NewRegistry(), slog.New(slog.DiscardHandler))

	ev, err := NewEvent("product.deleted", "marketplace", Aggregate{ID: "p-9", Type: "product"},
		map[string]string{"id": "p-9"}, WithCorrelationID("corr-1"), WithMarketID("market-1"))
	require.NoError(t, err)
	require.NoError(t, p.Publish(ctx, Topic("product", "deleted"), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "marketplace.product.deleted", msg.Topic)
	assert.Equal(t, "p-9", string(msg.Key))
	assert.Equal(t, "product.deleted", header(msg, "event_type"))
	assert.Equal(t, "corr-1", header(msg, "correlation_id"))
	assert.Equal(t, "market-1", header(msg, "market_id"))
	assert.Contains(t, header(msg, "traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")

	decoded, err := DecodeEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, decoded.ID)
	assert.Equal(t, ev.Aggregate, decoded.Aggregate)

	assert.Equal(t, float64(1), testutil.ToFloat64(p.published.WithLabelValues("marketplace.product.deleted", "ok")))
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, prometheus.NewRegistry(), slog.New(slog.DiscardHandler))

	ev, err := NewEvent("product.created", "marketplace", Aggregate{ID: "p-1", Type: "product"}, struct{}{})
	require.NoError(t, err)

	err = p.Publish(context.Background(), "marketplace.product.created", ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, float64(1), testutil.ToFloat64(p.published.WithLabelValues("marketplace.product.created", "error")))
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("v1")}}
	c := headerCarrier{headers: &headers}

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Empty(t, c.Get("missing"))

	c.Set("existing", "v2")
	c.Set("new", "x")
	assert.Equal(t, "v2", c.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "new"}, c.Keys())
}

func TestProducer_PingWithoutBrokers(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, prometheus.NewRegistry(), slog.New(slog.DiscardHandler))
	assert.Error(t, p.Ping(context.Background()))
}
