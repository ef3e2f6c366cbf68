package broker

import (
	"context"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/resilience"
)

// ResilientBroker wraps a Broker with a circuit breaker and retry policy
// around its write-path operations (Publish, LPush, LTrim). Read-path
// subscriptions are left untouched: retrying a broken subscription stream
// silently would hide message loss from the caller, so Subscribe/PSubscribe
// pass straight through and it is the transport's job to resubscribe.
type ResilientBroker struct {
	inner   Broker
	cb      *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewResilientBroker wraps inner with the given circuit breaker and retry
// configuration. Pass a zero resilience.RetryConfig to disable retries
// (MaxAttempts defaults to 1 attempt, i.e. no retry).
func NewResilientBroker(inner Broker, cb *resilience.CircuitBreaker, retry resilience.RetryConfig) *ResilientBroker {
	return &ResilientBroker{inner: inner, cb: cb, retry: retry}
}

func (r *ResilientBroker) call(ctx context.Context, fn resilience.Executor) error {
	return resilience.RetryWithCircuitBreaker(ctx, r.cb, r.retry, fn)
}

func (r *ResilientBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return r.call(ctx, func(ctx context.Context) error {
		return r.inner.Publish(ctx, channel, payload)
	})
}

func (r *ResilientBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, Unsubscribe, error) {
	return r.inner.Subscribe(ctx, channel)
}

func (r *ResilientBroker) PSubscribe(ctx context.Context, pattern string) (<-chan BrokerMessage, Unsubscribe, error) {
	return r.inner.PSubscribe(ctx, pattern)
}

func (r *ResilientBroker) LPush(ctx context.Context, list string, payload []byte) (int64, error) {
	var n int64
	err := r.call(ctx, func(ctx context.Context) error {
		var innerErr error
		n, innerErr = r.inner.LPush(ctx, list, payload)
		return innerErr
	})
	return n, err
}

func (r *ResilientBroker) LTrim(ctx context.Context, list string, maxLen int64) error {
	return r.call(ctx, func(ctx context.Context) error {
		return r.inner.LTrim(ctx, list, maxLen)
	})
}

// BRPop is not retried through the circuit breaker: it already blocks for
// up to timeout, and wrapping it in retry would multiply that wait.
func (r *ResilientBroker) BRPop(ctx context.Context, list string, timeout time.Duration) ([]byte, error) {
	return r.inner.BRPop(ctx, list, timeout)
}

func (r *ResilientBroker) LLen(ctx context.Context, list string) (int64, error) {
	return r.inner.LLen(ctx, list)
}

func (r *ResilientBroker) Close() error {
	return r.inner.Close()
}

func (r *ResilientBroker) Healthy(ctx context.Context) bool {
	return r.inner.Healthy(ctx)
}
