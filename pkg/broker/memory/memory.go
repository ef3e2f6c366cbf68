// Package memory implements an in-process broker.Broker backed by Go
// channels and a mutex-protected list map. It has no external
// dependencies and is meant for tests and single-process deployments,
// mirroring the role the teacher repo's in-memory cache/blob adapters
// play in their own adapter families.
package memory

import (
	"context"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/broker"
	"github.com/madbomber/smart-message-sub002/pkg/concurrency"
	"github.com/madbomber/smart-message-sub002/pkg/pattern"
)

type subscriber struct {
	ch     chan []byte
	closed bool
}

type patternSubscriber struct {
	pattern string
	ch      chan broker.BrokerMessage
	closed  bool
}

// Broker is an in-memory broker.Broker implementation.
type Broker struct {
	mu     *concurrency.SmartRWMutex
	closed bool

	subs  map[string][]*subscriber
	psubs []*patternSubscriber

	lists map[string][][]byte

	popSignal map[string]chan struct{}
}

// New creates an empty in-memory broker.
func New() *Broker {
	return &Broker{
		mu:        concurrency.NewSmartRWMutex(concurrency.MutexConfig{Name: "broker.memory"}),
		subs:      make(map[string][]*subscriber),
		lists:     make(map[string][][]byte),
		popSignal: make(map[string]chan struct{}),
	}
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return broker.ErrClosed(nil)
	}

	for _, s := range b.subs[channel] {
		if s.closed {
			continue
		}
		select {
		case s.ch <- payload:
		default:
		}
	}
	for _, ps := range b.psubs {
		if ps.closed {
			continue
		}
		if pattern.Match(ps.pattern, channel) {
			select {
			case ps.ch <- broker.BrokerMessage{Channel: channel, Payload: payload}:
			default:
			}
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, broker.Unsubscribe, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, broker.ErrClosed(nil)
	}
	s := &subscriber{ch: make(chan []byte, 64)}
	b.subs[channel] = append(b.subs[channel], s)
	b.mu.Unlock()

	unsub := func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s.closed {
			return nil
		}
		s.closed = true
		close(s.ch)
		list := b.subs[channel]
		for i, existing := range list {
			if existing == s {
				b.subs[channel] = append(list[:i], list[i+1:]...)
				break
			}
		}
		return nil
	}
	return s.ch, unsub, nil
}

func (b *Broker) PSubscribe(ctx context.Context, pat string) (<-chan broker.BrokerMessage, broker.Unsubscribe, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, broker.ErrClosed(nil)
	}
	ps := &patternSubscriber{pattern: pat, ch: make(chan broker.BrokerMessage, 64)}
	b.psubs = append(b.psubs, ps)
	b.mu.Unlock()

	unsub := func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ps.closed {
			return nil
		}
		ps.closed = true
		close(ps.ch)
		for i, existing := range b.psubs {
			if existing == ps {
				b.psubs = append(b.psubs[:i], b.psubs[i+1:]...)
				break
			}
		}
		return nil
	}
	return ps.ch, unsub, nil
}

func (b *Broker) LPush(ctx context.Context, list string, payload []byte) (int64, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0, broker.ErrClosed(nil)
	}
	b.lists[list] = append([][]byte{payload}, b.lists[list]...)
	n := int64(len(b.lists[list]))
	sig := b.popSignalLocked(list)
	b.mu.Unlock()

	select {
	case sig <- struct{}{}:
	default:
	}
	return n, nil
}

func (b *Broker) LTrim(ctx context.Context, list string, maxLen int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return broker.ErrClosed(nil)
	}
	if int64(len(b.lists[list])) > maxLen {
		b.lists[list] = b.lists[list][:maxLen]
	}
	return nil
}

func (b *Broker) BRPop(ctx context.Context, list string, timeout time.Duration) ([]byte, error) {
	for {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return nil, broker.ErrClosed(nil)
		}
		items := b.lists[list]
		if len(items) > 0 {
			payload := items[len(items)-1]
			b.lists[list] = items[:len(items)-1]
			b.mu.Unlock()
			return payload, nil
		}
		sig := b.popSignalLocked(list)
		b.mu.Unlock()

		var timer *time.Timer
		var timeoutCh <-chan time.Time
		if timeout > 0 {
			timer = time.NewTimer(timeout)
			timeoutCh = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, ctx.Err()
		case <-sig:
			if timer != nil {
				timer.Stop()
			}
			continue
		case <-timeoutCh:
			return nil, nil
		}
	}
}

func (b *Broker) LLen(ctx context.Context, list string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.lists[list])), nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, list := range b.subs {
		for _, s := range list {
			if !s.closed {
				s.closed = true
				close(s.ch)
			}
		}
	}
	for _, ps := range b.psubs {
		if !ps.closed {
			ps.closed = true
			close(ps.ch)
		}
	}
	return nil
}

func (b *Broker) Healthy(ctx context.Context) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed
}

// popSignalLocked returns the wakeup channel for list, creating it if
// needed. Caller must hold b.mu.
func (b *Broker) popSignalLocked(list string) chan struct{} {
	sig, ok := b.popSignal[list]
	if !ok {
		sig = make(chan struct{}, 1)
		b.popSignal[list] = sig
	}
	return sig
}

var _ broker.Broker = (*Broker)(nil)
