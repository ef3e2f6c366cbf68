package dispatcher

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/madbomber/smart-message-sub002/pkg/dispatcher"

// counters holds the per-class, per-handler accounting required by the
// spec: routed, dropped_no_match, handler_ok, handler_error,
// dispatcher_overflow, exported as OpenTelemetry counters so they flow
// into whatever metrics backend pkg/telemetry is wired to.
type counters struct {
	routed             metric.Int64Counter
	droppedNoMatch     metric.Int64Counter
	handlerOK          metric.Int64Counter
	handlerError       metric.Int64Counter
	dispatcherOverflow metric.Int64Counter
}

func newCounters() *counters {
	meter := otel.Meter(meterName)

	routed, _ := meter.Int64Counter("dispatcher.routed", metric.WithDescription("envelopes routed to at least one handler"))
	dropped, _ := meter.Int64Counter("dispatcher.dropped_no_match", metric.WithDescription("envelopes discarded: no subscription matched"))
	ok, _ := meter.Int64Counter("dispatcher.handler_ok", metric.WithDescription("handler invocations that returned without error"))
	failed, _ := meter.Int64Counter("dispatcher.handler_error", metric.WithDescription("handler invocations that returned or panicked with an error"))
	overflow, _ := meter.Int64Counter("dispatcher.overflow", metric.WithDescription("submissions dropped after the overflow timeout elapsed"))

	return &counters{
		routed:             routed,
		droppedNoMatch:     dropped,
		handlerOK:          ok,
		handlerError:       failed,
		dispatcherOverflow: overflow,
	}
}

func (c *counters) recordRouted(ctx context.Context, class string) {
	c.routed.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
}

func (c *counters) recordDroppedNoMatch(ctx context.Context, class string) {
	c.droppedNoMatch.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
}

func (c *counters) recordHandlerOK(ctx context.Context, class, handlerID string) {
	c.handlerOK.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class), attribute.String("handler", handlerID)))
}

func (c *counters) recordHandlerError(ctx context.Context, class, handlerID string) {
	c.handlerError.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class), attribute.String("handler", handlerID)))
}

func (c *counters) recordOverflow(ctx context.Context, class string) {
	c.dispatcherOverflow.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
}
