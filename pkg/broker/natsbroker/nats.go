// Package natsbroker implements broker.Broker over core NATS
// (nats.go). Subject wildcards map onto this module's pattern grammar:
// `*` maps to NATS `*` (one token) and a trailing `#` maps to NATS `>`,
// which matches one or more trailing tokens, so the zero-segment case of
// a trailing `#` is not matched.
package natsbroker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/madbomber/smart-message-sub002/pkg/broker"
)

// Config configures the NATS connection.
type Config struct {
	URL  string
	Name string
}

// Broker adapts a *nats.Conn to broker.Broker. NATS has no persistent
// list primitive, so LPush/BRPop/LTrim/LLen are emulated with an
// in-process buffered queue per list name: durable, broker-backed queue
// semantics for the queue transport require JetStream, which is out of
// scope for this adapter (see DESIGN.md).
type Broker struct {
	conn *nats.Conn

	mu    sync.Mutex
	lists map[string]chan []byte
}

// New connects to NATS at cfg.URL.
func New(cfg Config) (*Broker, error) {
	opts := []nats.Option{}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, broker.ErrConnectionFailed(err)
	}
	return &Broker{conn: conn, lists: make(map[string]chan []byte)}, nil
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.conn.Publish(natsSubject(channel), payload); err != nil {
		return broker.ErrPublishFailed(err)
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, broker.Unsubscribe, error) {
	out := make(chan []byte, 64)
	sub, err := b.conn.Subscribe(natsSubject(channel), func(msg *nats.Msg) {
		out <- msg.Data
	})
	if err != nil {
		close(out)
		return nil, nil, broker.ErrSubscribeFailed(err)
	}

	unsub := func() error {
		err := sub.Unsubscribe()
		close(out)
		return err
	}
	return out, unsub, nil
}

// PSubscribe subscribes to pattern translated onto a NATS subject
// (`.` stays, `*` stays, `#` becomes `>`); since NATS's own wildcard
// grammar is being used verbatim, no client-side re-filtering is
// required.
func (b *Broker) PSubscribe(ctx context.Context, pattern string) (<-chan broker.BrokerMessage, broker.Unsubscribe, error) {
	out := make(chan broker.BrokerMessage, 64)
	sub, err := b.conn.Subscribe(natsSubject(pattern), func(msg *nats.Msg) {
		out <- broker.BrokerMessage{Channel: msg.Subject, Payload: msg.Data}
	})
	if err != nil {
		close(out)
		return nil, nil, broker.ErrSubscribeFailed(err)
	}

	unsub := func() error {
		err := sub.Unsubscribe()
		close(out)
		return err
	}
	return out, unsub, nil
}

// natsSubject rewrites this module's `.`-separated `*`/`#` pattern onto
// a NATS subject: `#` (zero-or-more trailing segments) has no direct
// NATS equivalent other than `>` (one-or-more trailing tokens), so a
// bare trailing `#` is mapped to `>` and a non-trailing `#` is left as
// a literal token match failure risk documented in DESIGN.md.
func natsSubject(pattern string) string {
	if strings.HasSuffix(pattern, ".#") {
		return strings.TrimSuffix(pattern, "#") + ">"
	}
	if pattern == "#" {
		return ">"
	}
	return pattern
}

func (b *Broker) list(name string) chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.lists[name]
	if !ok {
		ch = make(chan []byte, 1024)
		b.lists[name] = ch
	}
	return ch
}

func (b *Broker) LPush(ctx context.Context, listName string, payload []byte) (int64, error) {
	ch := b.list(listName)
	select {
	case ch <- payload:
	default:
		return 0, broker.ErrPublishFailed(nats.ErrSlowConsumer)
	}
	return int64(len(ch)), nil
}

// LTrim is a best-effort cap: it drains the oldest entries until the
// channel length is at most maxLen. There is no atomic trim over a Go
// channel, so this is approximate under concurrent LPush.
func (b *Broker) LTrim(ctx context.Context, listName string, maxLen int64) error {
	ch := b.list(listName)
	for int64(len(ch)) > maxLen {
		select {
		case <-ch:
		default:
			return nil
		}
	}
	return nil
}

func (b *Broker) BRPop(ctx context.Context, listName string, timeout time.Duration) ([]byte, error) {
	ch := b.list(listName)
	select {
	case payload := <-ch:
		return payload, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Broker) LLen(ctx context.Context, listName string) (int64, error) {
	return int64(len(b.list(listName))), nil
}

func (b *Broker) Close() error {
	b.conn.Close()
	return nil
}

func (b *Broker) Healthy(ctx context.Context) bool {
	return b.conn.IsConnected()
}

var _ broker.Broker = (*Broker)(nil)
