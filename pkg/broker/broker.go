// Package broker defines the contract every transport in this module relies
// on for moving encoded envelope bytes through a backing message store.
//
// Concrete broker clients (Redis, RabbitMQ, NATS, ...) are external
// collaborators: this package defines only the interface, the adapters
// live in their own sub-packages (pkg/broker/{memory,redisbroker,
// amqpbroker,natsbroker}), following the same adapter-pattern layout the
// rest of this repository uses for cache/blob/messaging drivers.
//
// # Usage
//
//	import (
//	    "github.com/madbomber/smart-message-sub002/pkg/broker"
//	    "github.com/madbomber/smart-message-sub002/pkg/broker/redisbroker"
//	)
//
//	b := redisbroker.New(redisbroker.Config{Addr: "localhost:6379"})
//	defer b.Close()
package broker

import (
	"context"
	"time"
)

// BrokerMessage is one delivery from a pattern subscription: the concrete
// channel it arrived on (distinct from the pattern that matched it) plus
// the payload bytes.
type BrokerMessage struct {
	Channel string
	Payload []byte
}

// Unsubscribe stops a subscription created by Subscribe or PSubscribe. It
// closes the returned channel and releases broker-side resources.
type Unsubscribe func() error

// Broker is the minimal surface a transport needs from a backing store:
// fire-and-forget channel pub/sub, pattern subscription, and a persistent
// list usable as a FIFO queue via LPush/BRPop. Implementations MUST be
// safe for concurrent use — the dispatcher and transports call into a
// single Broker instance from multiple goroutines.
type Broker interface {
	// Publish sends payload to channel. Fire-and-forget: delivered only to
	// currently-connected subscribers (at-most-once).
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe opens a subscription to exactly one channel name. The
	// returned channel is closed when Unsubscribe is called or the broker
	// connection is lost.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, Unsubscribe, error)

	// PSubscribe opens a subscription to a wildcard pattern using the
	// broker's native pattern syntax where available (RabbitMQ topic
	// exchanges, NATS subjects); the memory and Redis adapters fall back
	// to client-side matching against pkg/pattern's grammar.
	PSubscribe(ctx context.Context, pattern string) (<-chan BrokerMessage, Unsubscribe, error)

	// LPush appends payload to the head of list and returns the list's new
	// length.
	LPush(ctx context.Context, list string, payload []byte) (int64, error)

	// LTrim trims list to at most maxLen entries, discarding from the tail
	// (the oldest entries, since LPush adds at the head).
	LTrim(ctx context.Context, list string, maxLen int64) error

	// BRPop blocks until an entry is available at the tail of list or
	// timeout elapses, returning (nil, nil) on timeout.
	BRPop(ctx context.Context, list string, timeout time.Duration) ([]byte, error)

	// LLen reports the current length of list.
	LLen(ctx context.Context, list string) (int64, error)

	// Close releases all connections held by the broker.
	Close() error

	// Healthy reports whether the broker connection is currently usable.
	Healthy(ctx context.Context) bool
}
