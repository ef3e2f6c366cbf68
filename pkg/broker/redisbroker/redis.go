// Package redisbroker implements broker.Broker over go-redis: PUBLISH
// / SUBSCRIBE / PSUBSCRIBE for channel messaging, LPUSH / LTRIM / BRPOP
// for the queue transport's FIFO lists.
package redisbroker

import (
	"context"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/broker"
	"github.com/madbomber/smart-message-sub002/pkg/pattern"
	"github.com/redis/go-redis/v9"
)

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Username string
	Password string
	DB       int

	PoolSize    int
	PoolTimeout time.Duration
}

// Broker adapts a *redis.Client to broker.Broker.
type Broker struct {
	client *redis.Client
}

// New dials Redis per cfg. The connection itself is lazy (go-redis
// connects on first command); Healthy issues a PING to verify liveness.
func New(cfg Config) *Broker {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.PoolTimeout > 0 {
		opts.PoolTimeout = cfg.PoolTimeout
	}
	return &Broker{client: redis.NewClient(opts)}
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return broker.ErrPublishFailed(err)
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, broker.Unsubscribe, error) {
	sub := b.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, broker.ErrSubscribeFailed(err)
	}

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			out <- []byte(msg.Payload)
		}
	}()

	unsub := func() error { return sub.Close() }
	return out, unsub, nil
}

func (b *Broker) PSubscribe(ctx context.Context, pat string) (<-chan broker.BrokerMessage, broker.Unsubscribe, error) {
	sub := b.client.PSubscribe(ctx, redisPattern(pat))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, broker.ErrSubscribeFailed(err)
	}

	out := make(chan broker.BrokerMessage, 64)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			// Redis glob has no zero-or-more-segments primitive, so the
			// broker-level pattern was widened (redisPattern); re-apply the
			// exact `*`/`#` grammar here before forwarding.
			if !pattern.Match(pat, msg.Channel) {
				continue
			}
			out <- broker.BrokerMessage{Channel: msg.Channel, Payload: []byte(msg.Payload)}
		}
	}()

	unsub := func() error { return sub.Close() }
	return out, unsub, nil
}

func (b *Broker) LPush(ctx context.Context, list string, payload []byte) (int64, error) {
	n, err := b.client.LPush(ctx, list, payload).Result()
	if err != nil {
		return 0, broker.ErrPublishFailed(err)
	}
	return n, nil
}

func (b *Broker) LTrim(ctx context.Context, list string, maxLen int64) error {
	if maxLen <= 0 {
		return b.client.Del(ctx, list).Err()
	}
	return b.client.LTrim(ctx, list, 0, maxLen-1).Err()
}

func (b *Broker) BRPop(ctx context.Context, list string, timeout time.Duration) ([]byte, error) {
	res, err := b.client.BRPop(ctx, timeout, list).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPop returns [list, value]
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

func (b *Broker) LLen(ctx context.Context, list string) (int64, error) {
	return b.client.LLen(ctx, list).Result()
}

func (b *Broker) Close() error {
	return b.client.Close()
}

func (b *Broker) Healthy(ctx context.Context) bool {
	return b.client.Ping(ctx).Err() == nil
}

// redisPattern translates this module's `*`/`#` grammar to Redis's glob
// pattern syntax (which has no zero-or-more-segments primitive): `*`
// maps directly, `#` is widened to Redis's own `*` and PSubscribe
// re-applies the precise `*`/`#` match (pattern.Match) client-side to
// every message of this broad subscription.
func redisPattern(pattern string) string {
	out := make([]rune, 0, len(pattern))
	for _, r := range pattern {
		if r == '#' {
			out = append(out, '*')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

var _ broker.Broker = (*Broker)(nil)
