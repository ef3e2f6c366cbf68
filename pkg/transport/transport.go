// Package transport defines the contract shared by every transport
// family (pub/sub, queue, fan-out) and the common scaffolding — lazy
// connect and reconnection policy — that concrete transports embed.
package transport

import (
	"context"
	"sync"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/broker"
	"github.com/madbomber/smart-message-sub002/pkg/dispatcher"
	"github.com/madbomber/smart-message-sub002/pkg/logger"
	"github.com/madbomber/smart-message-sub002/pkg/message"
	"github.com/madbomber/smart-message-sub002/pkg/resilience"
)

// Transport is the contract every transport family implements.
type Transport interface {
	// Publish sends the encoded envelope to the broker/queue named or
	// computed from routingHint (a channel name for pub/sub, a routing
	// key for the queue transport). Returns once the send is enqueued,
	// not once it is delivered.
	Publish(ctx context.Context, env message.Envelope, routingHint string) error

	// Subscribe registers (class, handlerID, filters) with the local
	// dispatcher and ensures the underlying broker is receiving for that
	// class.
	Subscribe(ctx context.Context, class, handlerID string, handler dispatcher.Handler, filters dispatcher.Filters) error

	Unsubscribe(class, handlerID string) bool
	UnsubscribeAll(class string) int

	// Connected reports best-effort liveness.
	Connected() bool

	// Shutdown drains the receive loop, drains the dispatcher, and closes
	// broker connections, each bounded by timeout.
	Shutdown(ctx context.Context, timeout time.Duration) error
}

// ReconnectPolicy configures how Base.EnsureConnected retries the broker
// health check when the broker reports unhealthy on a transport's first
// use (or the first use after MarkDisconnected). Nothing in this module
// calls MarkDisconnected, so a broker that drops after that first use is
// not retried by this policy.
type ReconnectPolicy struct {
	Attempts   int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func (p ReconnectPolicy) withDefaults() ReconnectPolicy {
	if p.Attempts <= 0 {
		p.Attempts = 5
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 200 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 10 * time.Second
	}
	return p
}

func (p ReconnectPolicy) retryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    p.Attempts,
		InitialBackoff: p.BaseDelay,
		MaxBackoff:     p.MaxDelay,
		Multiplier:     2.0,
		Jitter:         0.2,
	}
}

// Base provides the lazy-connect and reconnection scaffolding shared by
// every concrete transport. It is created disconnected; the first
// Publish or Subscribe call runs EnsureConnected.
type Base struct {
	Name   string
	Broker broker.Broker
	Policy ReconnectPolicy

	mu        sync.Mutex
	connected bool
}

// NewBase wraps a broker connection under the given transport name.
func NewBase(name string, b broker.Broker, policy ReconnectPolicy) *Base {
	return &Base{Name: name, Broker: b, Policy: policy.withDefaults()}
}

// EnsureConnected lazily marks the transport connected on first use. The
// broker itself owns the actual network connection; this just tracks
// whether this transport instance has started depending on it.
func (b *Base) EnsureConnected(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connected {
		return nil
	}
	if !b.Broker.Healthy(ctx) {
		if err := b.reconnect(ctx); err != nil {
			return &TransportDown{Name: b.Name, Err: err}
		}
	}
	b.connected = true
	return nil
}

// Connected reports the last-known liveness without attempting to
// reconnect.
func (b *Base) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected && b.Broker.Healthy(context.Background())
}

// MarkDisconnected resets the connected flag, forcing the next
// EnsureConnected call to re-verify the broker.
func (b *Base) MarkDisconnected() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
}

// reconnect retries the broker health check per Policy, with exponential
// backoff, logging each attempt. Caller must hold b.mu.
func (b *Base) reconnect(ctx context.Context) error {
	return resilience.Retry(ctx, b.Policy.retryConfig(), func(ctx context.Context) error {
		if b.Broker.Healthy(ctx) {
			return nil
		}
		err := &TransportDown{Name: b.Name, Err: errNotHealthy}
		logger.L().WarnContext(ctx, "transport reconnect attempt failed", "transport", b.Name)
		return err
	})
}

var errNotHealthy = transportNotHealthyError{}

type transportNotHealthyError struct{}

func (transportNotHealthyError) Error() string { return "broker reports unhealthy" }
