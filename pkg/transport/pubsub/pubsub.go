// Package pubsub implements the broker-backed pub/sub transport: one
// channel per message class (basic variant), optionally a second
// derived channel of `<type>.<from>.<to>` for pattern-capable brokers
// (enhanced variant).
package pubsub

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/broker"
	"github.com/madbomber/smart-message-sub002/pkg/concurrency"
	"github.com/madbomber/smart-message-sub002/pkg/dispatcher"
	"github.com/madbomber/smart-message-sub002/pkg/logger"
	"github.com/madbomber/smart-message-sub002/pkg/message"
	"github.com/madbomber/smart-message-sub002/pkg/pattern"
	"github.com/madbomber/smart-message-sub002/pkg/serializer"
	"github.com/madbomber/smart-message-sub002/pkg/transport"
)

// Config controls the pub/sub transport's behavior.
type Config struct {
	// Enhanced additionally publishes to a derived `<type>.<from>.<to>`
	// channel and enables pattern subscriptions. Per the specification's
	// resolved open question, dual publishing is opt-in and defaults off.
	Enhanced bool

	// AutoSubscribe is accepted but not read by this transport: Subscribe
	// always opens the broker-side subscription immediately, whatever its
	// value.
	AutoSubscribe bool

	Reconnect transport.ReconnectPolicy
}

// Transport is the pub/sub transport.
type Transport struct {
	name   string
	base   *transport.Base
	codec  serializer.Serializer
	disp   *dispatcher.Dispatcher
	cfg    Config

	mu            sync.Mutex
	channelSubs   map[string]broker.Unsubscribe
	patternSubs   map[string]broker.Unsubscribe
}

// New creates a pub/sub transport over b, encoding with codec and
// routing decoded envelopes into disp.
func New(name string, b broker.Broker, codec serializer.Serializer, disp *dispatcher.Dispatcher, cfg Config) *Transport {
	return &Transport{
		name:        name,
		base:        transport.NewBase(name, b, cfg.Reconnect),
		codec:       codec,
		disp:        disp,
		cfg:         cfg,
		channelSubs: make(map[string]broker.Unsubscribe),
		patternSubs: make(map[string]broker.Unsubscribe),
	}
}

// Publish encodes env and publishes it to the basic channel
// (message_class verbatim) and, if Enhanced, to the derived channel
// first. A publish is considered successful if at least one of the two
// broker-level publishes acknowledges.
func (t *Transport) Publish(ctx context.Context, env message.Envelope, routingHint string) error {
	if err := t.base.EnsureConnected(ctx); err != nil {
		return err
	}

	env.Header = env.Header.Stamp()

	data, err := t.codec.Encode(env)
	if err != nil {
		return &transport.SerializerError{Err: err}
	}

	basic := env.Header.MessageClass
	if routingHint != "" {
		basic = routingHint
	}

	var lastErr error
	succeeded := false

	if t.cfg.Enhanced {
		enhanced := derivedChannel(env.Header)
		if err := t.base.Broker.Publish(ctx, enhanced, data); err != nil {
			lastErr = err
		} else {
			succeeded = true
		}
	}

	if err := t.base.Broker.Publish(ctx, basic, data); err != nil {
		lastErr = err
	} else {
		succeeded = true
	}

	if !succeeded {
		return lastErr
	}
	return nil
}

// Subscribe registers the handler with the local dispatcher and ensures a
// single broker subscription exists for class's basic channel; pattern
// subscriptions are opened only through SubscribePattern. Demultiplexing
// to handlers is the dispatcher's job, not this transport's.
func (t *Transport) Subscribe(ctx context.Context, class, handlerID string, handler dispatcher.Handler, filters dispatcher.Filters) error {
	if err := t.base.EnsureConnected(ctx); err != nil {
		return err
	}

	t.disp.Subscribe(class, handlerID, handler, filters)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.channelSubs[class]; !exists {
		unsub, err := t.listenChannel(ctx, class)
		if err != nil {
			return err
		}
		t.channelSubs[class] = unsub
	}
	return nil
}

// SubscribePattern additionally binds a wildcard pattern subscription via
// the broker's native pattern-subscribe (Enhanced mode only), demuxing
// matches to the dispatcher the same way channel subscriptions do. A
// second call with the same pattern string is a no-op — one broker
// pattern subscription serves every local handler bound to it.
func (t *Transport) SubscribePattern(ctx context.Context, pat string) error {
	if !t.cfg.Enhanced {
		return nil
	}
	if err := t.base.EnsureConnected(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.patternSubs[pat]; exists {
		return nil
	}

	ch, unsub, err := t.base.Broker.PSubscribe(ctx, pat)
	if err != nil {
		return err
	}
	concurrency.SafeGo(ctx, func() {
		for msg := range ch {
			t.deliver(ctx, msg.Payload)
		}
	})
	t.patternSubs[pat] = unsub
	return nil
}

func (t *Transport) listenChannel(ctx context.Context, channel string) (broker.Unsubscribe, error) {
	ch, unsub, err := t.base.Broker.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}

	concurrency.SafeGo(ctx, func() {
		for payload := range ch {
			t.deliver(ctx, payload)
		}
	})
	return unsub, nil
}

func (t *Transport) deliver(ctx context.Context, payload []byte) {
	env, err := t.codec.Decode(payload)
	if err != nil {
		logger.L().ErrorContext(ctx, "pubsub decode failed", "transport", t.name, "error", err)
		return
	}
	if err := t.disp.Route(ctx, env.Header.MessageClass, env); err != nil {
		logger.L().WarnContext(ctx, "pubsub route failed", "transport", t.name, "error", err)
	}
}

func (t *Transport) Unsubscribe(class, handlerID string) bool {
	return t.disp.Unsubscribe(class, handlerID)
}

func (t *Transport) UnsubscribeAll(class string) int {
	return t.disp.UnsubscribeAll(class)
}

func (t *Transport) Connected() bool {
	return t.base.Connected()
}

// Shutdown unsubscribes every broker-level channel/pattern subscription
// and drains the dispatcher up to timeout.
func (t *Transport) Shutdown(ctx context.Context, timeout time.Duration) error {
	t.mu.Lock()
	for _, unsub := range t.channelSubs {
		_ = unsub()
	}
	for _, unsub := range t.patternSubs {
		_ = unsub()
	}
	t.channelSubs = make(map[string]broker.Unsubscribe)
	t.patternSubs = make(map[string]broker.Unsubscribe)
	t.mu.Unlock()

	t.disp.Drain(timeout)
	return t.base.Broker.Close()
}

// derivedChannel computes the enhanced channel name
// `<type>.<from>.<to>` (lowercased, punctuation-normalized) from header.
func derivedChannel(h message.Header) string {
	typ := message.Namespace(h.MessageClass)
	to := h.To
	if to == "" {
		to = "broadcast"
	}
	parts := []string{typ, pattern.NormalizeSegment(h.From), pattern.NormalizeSegment(to)}
	return strings.Join(parts, ".")
}

var _ transport.Transport = (*Transport)(nil)
