// Package dispatcher is the process-wide, concurrent router: it owns a
// bounded worker pool, an in-memory subscription table keyed by message
// class, and invokes handlers with filter evaluation and per-message
// accounting.
package dispatcher

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/concurrency"
	"github.com/madbomber/smart-message-sub002/pkg/logger"
	"github.com/madbomber/smart-message-sub002/pkg/message"
)

// DeadLetterFunc receives a HandlerError for a handler that failed; the
// owning transport wires this to its DLQ push. A nil sink drops the
// failure after logging and counting it.
type DeadLetterFunc func(ctx context.Context, herr *HandlerError, envelope message.Envelope)

// Config controls worker pool sizing and backpressure.
type Config struct {
	// WorkerCount is the fixed worker pool size. Zero selects a default
	// derived from GOMAXPROCS, bounded by a ceiling.
	WorkerCount int

	// QueueDepth bounds the number of submissions allowed in flight
	// (queued + executing) before Route blocks.
	QueueDepth int

	// OverflowTimeout is how long Route blocks waiting for a worker slot
	// before giving up and counting dispatcher_overflow.
	OverflowTimeout time.Duration

	// DeadLetter receives handler failures, if set.
	DeadLetter DeadLetterFunc
}

func (c Config) withDefaults() Config {
	if c.WorkerCount <= 0 {
		c.WorkerCount = defaultWorkerCount()
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = c.WorkerCount * 4
	}
	if c.OverflowTimeout <= 0 {
		c.OverflowTimeout = 500 * time.Millisecond
	}
	return c
}

const maxDefaultWorkers = 32

func defaultWorkerCount() int {
	n := runtime.GOMAXPROCS(0)
	if n <= 0 {
		n = 4
	}
	if n > maxDefaultWorkers {
		n = maxDefaultWorkers
	}
	return n
}

// Dispatcher routes inbound envelopes to registered handlers.
type Dispatcher struct {
	cfg      Config
	registry *registry
	pool     *concurrency.WorkerPool
	sem      *concurrency.Semaphore
	counters *counters

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Dispatcher and starts its worker pool.
func New(cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		cfg:      cfg,
		registry: newRegistry(),
		pool:     concurrency.NewWorkerPool(cfg.WorkerCount, cfg.QueueDepth),
		sem:      concurrency.NewSemaphore(int64(cfg.QueueDepth)),
		counters: newCounters(),
		ctx:      ctx,
		cancel:   cancel,
	}
	d.pool.Start(ctx)
	return d
}

// Subscribe registers handler under (class, handlerID), idempotently.
// Re-subscribing the same pair replaces its filters.
func (d *Dispatcher) Subscribe(class, handlerID string, handler Handler, filters Filters) {
	d.registry.subscribe(&Subscription{Class: class, HandlerID: handlerID, Handler: handler, Filters: filters})
}

// Unsubscribe removes (class, handlerID), reporting whether a record was
// removed. Unsubscribing a non-existent pair is a no-op returning false.
func (d *Dispatcher) Unsubscribe(class, handlerID string) bool {
	return d.registry.unsubscribe(class, handlerID)
}

// UnsubscribeAll removes every handler registered for class.
func (d *Dispatcher) UnsubscribeAll(class string) int {
	return d.registry.unsubscribeAll(class)
}

// Route is the transport-facing entry point: it evaluates filters for
// every subscription registered under envelope's class and submits each
// match to the worker pool. Non-matching envelopes are counted and
// discarded. Route blocks up to cfg.OverflowTimeout per matching
// subscription waiting for a worker slot before counting
// dispatcher_overflow and returning a *DispatcherOverflow for that match.
func (d *Dispatcher) Route(ctx context.Context, class string, envelope message.Envelope) error {
	subs := d.registry.subscriptionsFor(class)

	h := envelope.Header
	var matched []*Subscription
	for _, sub := range subs {
		if sub.Filters.Match(h.From, h.To, h.ReplyTo) {
			matched = append(matched, sub)
		}
	}

	if len(matched) == 0 {
		d.counters.recordDroppedNoMatch(ctx, class)
		return nil
	}
	d.counters.recordRouted(ctx, class)

	var overflowErr error
	for _, sub := range matched {
		if err := d.submit(ctx, class, sub, envelope); err != nil {
			overflowErr = err
		}
	}
	return overflowErr
}

func (d *Dispatcher) submit(ctx context.Context, class string, sub *Subscription, envelope message.Envelope) error {
	acquireCtx, cancel := context.WithTimeout(ctx, d.cfg.OverflowTimeout)
	defer cancel()

	if err := d.sem.Acquire(acquireCtx, 1); err != nil {
		d.counters.recordOverflow(ctx, class)
		logger.L().ErrorContext(ctx, "dispatcher overflow, dropping envelope",
			"message_class", class, "handler", sub.HandlerID, "envelope_uuid", envelope.Header.UUID)
		return &DispatcherOverflow{Class: class}
	}

	d.pool.Submit(func(workerCtx context.Context) {
		defer d.sem.Release(1)
		d.invoke(workerCtx, class, sub, envelope)
	})
	return nil
}

// invoke runs sub.Handler with panic recovery; panics and returned
// errors are both treated as handler failures.
func (d *Dispatcher) invoke(ctx context.Context, class string, sub *Subscription, envelope message.Envelope) {
	herr := func() (herr *HandlerError) {
		defer func() {
			if r := recover(); r != nil {
				logger.L().ErrorContext(ctx, "handler panicked", "message_class", class,
					"handler", sub.HandlerID, "envelope_uuid", envelope.Header.UUID,
					"panic", r, "stack", string(debug.Stack()))
				herr = &HandlerError{Class: class, HandlerID: sub.HandlerID, EnvelopeUUID: envelope.Header.UUID, Err: errFromPanic(r)}
			}
		}()
		if err := sub.Handler(envelope); err != nil {
			return &HandlerError{Class: class, HandlerID: sub.HandlerID, EnvelopeUUID: envelope.Header.UUID, Err: err}
		}
		return nil
	}()

	if herr == nil {
		d.counters.recordHandlerOK(ctx, class, sub.HandlerID)
		return
	}

	d.counters.recordHandlerError(ctx, class, sub.HandlerID)
	logger.LogHandlerError(ctx, envelope.Header.UUID, class, sub.HandlerID, herr.Err)
	if d.cfg.DeadLetter != nil {
		d.cfg.DeadLetter(ctx, herr, envelope)
	}
}

// Drain stops accepting new submissions by cancelling the dispatcher
// context after at most timeout, giving in-flight handlers that long to
// finish. The worker pool's own Stop drains remaining queued work.
func (d *Dispatcher) Drain(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		d.pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
	d.cancel()
}

func errFromPanic(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicValue{r}
}

type panicValue struct{ v interface{} }

func (p *panicValue) Error() string { return toString(p.v) }

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "panic: non-error, non-string value"
}
