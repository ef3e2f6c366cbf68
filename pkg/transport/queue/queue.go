// Package queue implements the persistent routing-key queue transport:
// publish translates (class, from, to) into a routing key, matches it
// against a pattern routing table, and appends the encoded envelope to
// every distinct matched queue; consumer-group workers blocking-pop from
// their bound queues and hand decoded envelopes to the dispatcher.
package queue

import (
	"context"
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

// Config controls the queue transport's behavior.
type Config struct {
	QueuePrefix    string
	ConsumerGroup  string
	ConsumerID     string
	BlockTime      time.Duration
	MaxQueueLength int64

	// MaxRetries/RetryDelay are accepted for configuration parity with
	// the source system but are not implemented as transport-level
	// redelivery: a handler failure is dead-lettered on first failure
	// (see Design Notes — retry is a publisher/handler responsibility).
	MaxRetries int
	RetryDelay time.Duration

	DeadLetterQueue  bool
	DeadLetterPrefix string

	// TestMode disables starting blocking-pop workers; used by
	// statistics-only callers that only need queue_stats/routing_table.
	TestMode bool

	Reconnect transport.ReconnectPolicy
}

func (c Config) withDefaults() Config {
	if c.QueuePrefix == "" {
		c.QueuePrefix = "mq"
	}
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "default"
	}
	if c.ConsumerID == "" {
		c.ConsumerID = c.ConsumerGroup + "-1"
	}
	if c.BlockTime <= 0 {
		c.BlockTime = 5 * time.Second
	}
	if c.MaxQueueLength <= 0 {
		c.MaxQueueLength = 10000
	}
	if c.DeadLetterPrefix == "" {
		c.DeadLetterPrefix = "dlq"
	}
	return c
}

// binding tracks one active worker goroutine for a (pattern, consumer
// group, consumer id) subscription.
type binding struct {
	queue  string
	stop   chan struct{}
}

// Transport is the queue transport.
type Transport struct {
	base  *transport.Base
	codec serializer.Serializer
	disp  *dispatcher.Dispatcher
	cfg   Config
	table *pattern.Table

	mu          sync.Mutex
	bindings    []*binding
	handlerQueue map[string]string // "class|handlerID" -> queue, for DLQ routing
}

// New creates a queue transport over b.
func New(b broker.Broker, codec serializer.Serializer, disp *dispatcher.Dispatcher, cfg Config) *Transport {
	cfg = cfg.withDefaults()
	t := &Transport{
		base:         transport.NewBase("queue", b, cfg.Reconnect),
		codec:        codec,
		disp:         disp,
		cfg:          cfg,
		table:        pattern.NewTable(cfg.QueuePrefix),
		handlerQueue: make(map[string]string),
	}
	return t
}

// RoutingKey computes the `<namespace>.<type>.<from>.<to>` key for a
// publish. namespace and type are both derived from class, matching the
// source's convention of deriving "type" from the message class itself;
// an empty to is rendered as the literal segment "broadcast".
func RoutingKey(class, from, to string) (string, error) {
	if to != "" && containsDot(to) {
		return "", &transport.InvalidRouting{Reason: "recipient must not contain '.'"}
	}
	if from != "" && containsDot(from) {
		return "", &transport.InvalidRouting{Reason: "sender must not contain '.'"}
	}

	ns := message.Namespace(class)
	toSeg := to
	if toSeg == "" {
		toSeg = "broadcast"
	} else {
		toSeg = pattern.NormalizeSegment(toSeg)
	}
	fromSeg := pattern.NormalizeSegment(from)

	return ns + "." + ns + "." + fromSeg + "." + toSeg, nil
}

func containsDot(s string) bool {
	for _, r := range s {
		if r == '.' {
			return true
		}
	}
	return false
}

// Publish computes the routing key from env.Header (class, from, to),
// matches it against the routing table, and appends the encoded
// envelope to every distinct matched queue, trimming to MaxQueueLength
// when exceeded. routingHint overrides the computed routing key when
// non-empty (used by callers that pre-compute it, e.g. the fan-out
// publisher).
func (t *Transport) Publish(ctx context.Context, env message.Envelope, routingHint string) error {
	if err := t.base.EnsureConnected(ctx); err != nil {
		return err
	}

	env.Header = env.Header.Stamp()

	key := routingHint
	if key == "" {
		var err error
		key, err = RoutingKey(env.Header.MessageClass, env.Header.From, env.Header.To)
		if err != nil {
			return err
		}
	}

	data, err := t.codec.Encode(env)
	if err != nil {
		return &transport.SerializerError{Err: err}
	}

	queues := t.table.MatchQueues(key)
	for _, q := range queues {
		n, err := t.base.Broker.LPush(ctx, q, data)
		if err != nil {
			return err
		}
		if n > t.cfg.MaxQueueLength {
			if err := t.base.Broker.LTrim(ctx, q, t.cfg.MaxQueueLength); err != nil {
				logger.L().WarnContext(ctx, "queue trim failed", "queue", q, "error", err)
			}
		}
	}
	return nil
}

// Subscribe binds class to the pattern `#.<namespace(class)>.*.*` under
// the transport's default consumer group, matching any routing key whose
// derived type segment is class's namespace. For explicit pattern
// control use Where().
func (t *Transport) Subscribe(ctx context.Context, class, handlerID string, handler dispatcher.Handler, filters dispatcher.Filters) error {
	pat := pattern.NewBuilder().Type(message.Namespace(class)).Build()
	return t.SubscribePattern(ctx, pat, class, handlerID, handler, filters, t.cfg.ConsumerGroup)
}

// SubscribePattern adds (pattern, class, handler, filters) to the
// routing table, derives the queue name, registers the handler with the
// dispatcher, and starts one worker bound to (consumerGroup, queue).
// Subscribing the same pattern again under the same group adds another
// worker to the same queue — the mechanism behind consumer-group load
// balancing.
func (t *Transport) SubscribePattern(ctx context.Context, pat, class, handlerID string, handler dispatcher.Handler, filters dispatcher.Filters, consumerGroup string) error {
	if err := t.base.EnsureConnected(ctx); err != nil {
		return err
	}

	t.disp.Subscribe(class, handlerID, handler, filters)
	b := t.table.Bind(pat, consumerGroup)

	t.mu.Lock()
	t.handlerQueue[class+"|"+handlerID] = b.Queue
	t.mu.Unlock()

	if t.cfg.TestMode {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	bnd := &binding{queue: b.Queue, stop: make(chan struct{})}
	t.bindings = append(t.bindings, bnd)
	t.startWorker(ctx, bnd)
	return nil
}

// startWorker runs the cooperative blocking-pop loop for one binding:
// blocking-pop with a timeout, decode on data, route to the dispatcher,
// yield and re-poll on timeout, count+log+continue on error.
func (t *Transport) startWorker(ctx context.Context, bnd *binding) {
	concurrency.SafeGo(ctx, func() {
		for {
			select {
			case <-bnd.stop:
				return
			default:
			}

			payload, err := t.base.Broker.BRPop(ctx, bnd.queue, t.cfg.BlockTime)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.L().ErrorContext(ctx, "queue worker pop failed", "queue", bnd.queue, "error", err)
				time.Sleep(t.cfg.RetryDelay)
				continue
			}
			if payload == nil {
				continue // timeout: yield and re-poll
			}

			t.handleDelivery(ctx, bnd.queue, payload)
		}
	})
}

func (t *Transport) handleDelivery(ctx context.Context, queue string, payload []byte) {
	env, err := t.codec.Decode(payload)
	if err != nil {
		logger.L().ErrorContext(ctx, "queue decode failed", "queue", queue, "error", err)
		if t.cfg.DeadLetterQueue {
			t.pushDeadLetter(ctx, queue, payload, "SerializerError", err.Error())
		}
		return
	}

	if err := t.disp.Route(ctx, env.Header.MessageClass, env); err != nil {
		logger.L().WarnContext(ctx, "queue route failed", "queue", queue, "error", err)
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

// Shutdown stops every worker and drains the dispatcher up to timeout.
func (t *Transport) Shutdown(ctx context.Context, timeout time.Duration) error {
	t.mu.Lock()
	for _, b := range t.bindings {
		close(b.stop)
	}
	t.bindings = nil
	t.mu.Unlock()

	t.disp.Drain(timeout)
	return t.base.Broker.Close()
}

// QueueStat is one row of the read-only management surface.
type QueueStat struct {
	Queue     string
	Pattern   string
	Consumers int
	Length    int64
}

// QueueStats returns, per known queue, length/pattern/consumer count.
func (t *Transport) QueueStats(ctx context.Context) []QueueStat {
	bindings := t.table.Snapshot()

	byQueue := make(map[string]*QueueStat)
	var order []string
	for _, b := range bindings {
		stat, ok := byQueue[b.Queue]
		if !ok {
			stat = &QueueStat{Queue: b.Queue, Pattern: b.Pattern}
			byQueue[b.Queue] = stat
			order = append(order, b.Queue)
		}
		stat.Consumers++
	}

	stats := make([]QueueStat, 0, len(order))
	for _, q := range order {
		stat := byQueue[q]
		if n, err := t.base.Broker.LLen(ctx, q); err == nil {
			stat.Length = n
		}
		stats = append(stats, *stat)
	}
	return stats
}

// RoutingTable returns the pattern -> queue bindings.
func (t *Transport) RoutingTable() []pattern.Binding {
	return t.table.Snapshot()
}

// ClearQueue empties queue by trimming it to zero length. Destructive;
// reserved for administrative use.
func (t *Transport) ClearQueue(ctx context.Context, queue string) error {
	return t.base.Broker.LTrim(ctx, queue, 0)
}

var _ transport.Transport = (*Transport)(nil)
