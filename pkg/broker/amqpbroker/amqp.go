// Package amqpbroker implements broker.Broker over RabbitMQ
// (amqp091-go). Its topic-exchange binding-key grammar (`*` one word,
// `#` zero-or-more words) is exactly this module's pattern grammar, so
// PSubscribe is the one adapter that needs no client-side post-filter —
// native pattern matching all the way.
package amqpbroker

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/madbomber/smart-message-sub002/pkg/broker"
)

// Config configures the AMQP connection.
type Config struct {
	URL string

	// Exchange is the topic exchange used for Publish/Subscribe/PSubscribe.
	Exchange string

	// QueuePrefix namespaces the classic queues used for LPush/BRPop.
	QueuePrefix string
}

func (c Config) withDefaults() Config {
	if c.Exchange == "" {
		c.Exchange = "messagebus.topic"
	}
	if c.QueuePrefix == "" {
		c.QueuePrefix = "messagebus.list"
	}
	return c
}

// Broker adapts an amqp091-go connection to broker.Broker.
type Broker struct {
	cfg  Config
	conn *amqp.Connection

	pubMu sync.Mutex
	pubCh *amqp.Channel

	listMu sync.Mutex
	listCh *amqp.Channel
}

// New dials RabbitMQ at cfg.URL and declares the topic exchange used for
// channel pub/sub.
func New(cfg Config) (*Broker, error) {
	cfg = cfg.withDefaults()

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, broker.ErrConnectionFailed(err)
	}

	pubCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, broker.ErrConnectionFailed(err)
	}
	if err := pubCh.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, broker.ErrConnectionFailed(err)
	}

	listCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, broker.ErrConnectionFailed(err)
	}

	return &Broker{cfg: cfg, conn: conn, pubCh: pubCh, listCh: listCh}, nil
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	err := b.pubCh.PublishWithContext(ctx, b.cfg.Exchange, channel, false, false, amqp.Publishing{
		Body: payload,
	})
	if err != nil {
		return broker.ErrPublishFailed(err)
	}
	return nil
}

// Subscribe binds an exclusive, auto-deleted queue to the exact routing
// key channel and streams deliveries as raw payloads.
func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, broker.Unsubscribe, error) {
	consumeCh, deliveries, err := b.bindAndConsume(channel)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		for d := range deliveries {
			out <- d.Body
		}
	}()

	unsub := func() error { return consumeCh.Close() }
	return out, unsub, nil
}

// PSubscribe binds an exclusive queue using pattern directly as the AMQP
// binding key: this module's `*`/`#` grammar is RabbitMQ's own, so no
// client-side re-filtering is required (contrast redisbroker).
func (b *Broker) PSubscribe(ctx context.Context, pattern string) (<-chan broker.BrokerMessage, broker.Unsubscribe, error) {
	consumeCh, deliveries, err := b.bindAndConsume(pattern)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan broker.BrokerMessage, 64)
	go func() {
		defer close(out)
		for d := range deliveries {
			out <- broker.BrokerMessage{Channel: d.RoutingKey, Payload: d.Body}
		}
	}()

	unsub := func() error { return consumeCh.Close() }
	return out, unsub, nil
}

// bindAndConsume declares an exclusive, auto-deleted queue bound to
// bindingKey on the topic exchange and starts consuming it.
func (b *Broker) bindAndConsume(bindingKey string) (*amqp.Channel, <-chan amqp.Delivery, error) {
	consumeCh, err := b.conn.Channel()
	if err != nil {
		return nil, nil, broker.ErrSubscribeFailed(err)
	}

	q, err := consumeCh.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, broker.ErrSubscribeFailed(err)
	}
	if err := consumeCh.QueueBind(q.Name, bindingKey, b.cfg.Exchange, false, nil); err != nil {
		_ = consumeCh.Close()
		return nil, nil, broker.ErrSubscribeFailed(err)
	}

	deliveries, err := consumeCh.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, broker.ErrSubscribeFailed(err)
	}

	return consumeCh, deliveries, nil
}

func (b *Broker) listQueue(list string) string {
	return b.cfg.QueuePrefix + "." + list
}

// LPush publishes payload onto list's classic queue (declared lazily)
// and returns the queue's resulting message count.
func (b *Broker) LPush(ctx context.Context, list string, payload []byte) (int64, error) {
	name := b.listQueue(list)

	b.listMu.Lock()
	_, err := b.listCh.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		b.listMu.Unlock()
		return 0, broker.ErrPublishFailed(err)
	}
	err = b.listCh.PublishWithContext(ctx, "", name, false, false, amqp.Publishing{Body: payload})
	b.listMu.Unlock()
	if err != nil {
		return 0, broker.ErrPublishFailed(err)
	}

	q, err := b.listCh.QueueInspect(name)
	if err != nil {
		return 0, broker.ErrPublishFailed(err)
	}
	return int64(q.Messages), nil
}

// LTrim has no native AMQP equivalent (queues aren't indexable lists);
// it purges the queue down to an approximate bound by draining excess
// messages from the head, which is the closest available semantics.
func (b *Broker) LTrim(ctx context.Context, list string, maxLen int64) error {
	name := b.listQueue(list)

	b.listMu.Lock()
	defer b.listMu.Unlock()

	if maxLen <= 0 {
		_, err := b.listCh.QueuePurge(name, false)
		return err
	}

	q, err := b.listCh.QueueInspect(name)
	if err != nil {
		return nil // queue not declared yet, nothing to trim
	}
	excess := int64(q.Messages) - maxLen
	for i := int64(0); i < excess; i++ {
		msg, ok, err := b.listCh.Get(name, true)
		if err != nil || !ok {
			break
		}
		_ = msg
	}
	return nil
}

// BRPop blocks up to timeout waiting for a message on list's queue.
func (b *Broker) BRPop(ctx context.Context, list string, timeout time.Duration) ([]byte, error) {
	name := b.listQueue(list)

	b.listMu.Lock()
	_, err := b.listCh.QueueDeclare(name, true, false, false, false, nil)
	b.listMu.Unlock()
	if err != nil {
		return nil, broker.ErrSubscribeFailed(err)
	}

	popCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	deadline := time.Now().Add(timeout)
	for {
		b.listMu.Lock()
		msg, ok, err := b.listCh.Get(name, true)
		b.listMu.Unlock()
		if err != nil {
			return nil, err
		}
		if ok {
			return msg.Body, nil
		}
		select {
		case <-popCtx.Done():
			return nil, nil
		case <-time.After(50 * time.Millisecond):
			if time.Now().After(deadline) {
				return nil, nil
			}
		}
	}
}

func (b *Broker) LLen(ctx context.Context, list string) (int64, error) {
	b.listMu.Lock()
	defer b.listMu.Unlock()
	q, err := b.listCh.QueueInspect(b.listQueue(list))
	if err != nil {
		return 0, nil
	}
	return int64(q.Messages), nil
}

func (b *Broker) Close() error {
	return b.conn.Close()
}

func (b *Broker) Healthy(ctx context.Context) bool {
	return b.conn != nil && !b.conn.IsClosed()
}

var _ broker.Broker = (*Broker)(nil)
