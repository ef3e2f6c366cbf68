package broker

import (
	"context"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/madbomber/smart-message-sub002/pkg/broker"

// InstrumentedBroker wraps a Broker with OpenTelemetry spans and structured
// logging around Publish, Subscribe, PSubscribe, LPush, LTrim and BRPop;
// LLen, Close and Healthy pass straight through to the wrapped broker.
// Errors are recorded on the span and logged at
// ERROR; successful calls are logged at DEBUG to avoid flooding production
// logs with routine publish/pop traffic.
type InstrumentedBroker struct {
	inner  Broker
	name   string
	tracer trace.Tracer
}

// NewInstrumentedBroker wraps inner, tagging spans and log lines with name
// (typically the broker driver, e.g. "redis", "amqp", "nats").
func NewInstrumentedBroker(inner Broker, name string) *InstrumentedBroker {
	return &InstrumentedBroker{inner: inner, name: name, tracer: otel.Tracer(tracerName)}
}

func (b *InstrumentedBroker) span(ctx context.Context, op string) (context.Context, trace.Span) {
	return b.tracer.Start(ctx, "broker."+op, trace.WithAttributes(
		attribute.String("broker.driver", b.name),
	))
}

func (b *InstrumentedBroker) finish(ctx context.Context, span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.L().ErrorContext(ctx, "broker operation failed", "driver", b.name, "op", op, "error", err)
	} else {
		logger.L().DebugContext(ctx, "broker operation", "driver", b.name, "op", op)
	}
	span.End()
}

func (b *InstrumentedBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	ctx, span := b.span(ctx, "publish")
	span.SetAttributes(attribute.String("broker.channel", channel), attribute.Int("broker.payload_size", len(payload)))
	err := b.inner.Publish(ctx, channel, payload)
	b.finish(ctx, span, "publish", err)
	return err
}

func (b *InstrumentedBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, Unsubscribe, error) {
	ctx, span := b.span(ctx, "subscribe")
	span.SetAttributes(attribute.String("broker.channel", channel))
	ch, unsub, err := b.inner.Subscribe(ctx, channel)
	b.finish(ctx, span, "subscribe", err)
	return ch, unsub, err
}

func (b *InstrumentedBroker) PSubscribe(ctx context.Context, pattern string) (<-chan BrokerMessage, Unsubscribe, error) {
	ctx, span := b.span(ctx, "psubscribe")
	span.SetAttributes(attribute.String("broker.pattern", pattern))
	ch, unsub, err := b.inner.PSubscribe(ctx, pattern)
	b.finish(ctx, span, "psubscribe", err)
	return ch, unsub, err
}

func (b *InstrumentedBroker) LPush(ctx context.Context, list string, payload []byte) (int64, error) {
	ctx, span := b.span(ctx, "lpush")
	span.SetAttributes(attribute.String("broker.list", list))
	n, err := b.inner.LPush(ctx, list, payload)
	b.finish(ctx, span, "lpush", err)
	return n, err
}

func (b *InstrumentedBroker) LTrim(ctx context.Context, list string, maxLen int64) error {
	ctx, span := b.span(ctx, "ltrim")
	span.SetAttributes(attribute.String("broker.list", list), attribute.Int64("broker.max_len", maxLen))
	err := b.inner.LTrim(ctx, list, maxLen)
	b.finish(ctx, span, "ltrim", err)
	return err
}

func (b *InstrumentedBroker) BRPop(ctx context.Context, list string, timeout time.Duration) ([]byte, error) {
	ctx, span := b.span(ctx, "brpop")
	span.SetAttributes(attribute.String("broker.list", list))
	payload, err := b.inner.BRPop(ctx, list, timeout)
	b.finish(ctx, span, "brpop", err)
	return payload, err
}

func (b *InstrumentedBroker) LLen(ctx context.Context, list string) (int64, error) {
	return b.inner.LLen(ctx, list)
}

func (b *InstrumentedBroker) Close() error {
	return b.inner.Close()
}

func (b *InstrumentedBroker) Healthy(ctx context.Context) bool {
	return b.inner.Healthy(ctx)
}
