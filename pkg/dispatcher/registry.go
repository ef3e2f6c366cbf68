package dispatcher

import (
	"github.com/madbomber/smart-message-sub002/pkg/concurrency"
	"github.com/madbomber/smart-message-sub002/pkg/message"
)

// Handler processes one routed envelope. HandlerID is a stable identity
// used to make subscribe/unsubscribe idempotent by identity even though
// the handler itself is an opaque closure.
type Handler func(envelope message.Envelope) error

// Subscription is one (handler, filters) record bound to a message class.
type Subscription struct {
	Class     string
	HandlerID string
	Handler   Handler
	Filters   Filters
}

// registry is the subscription table: message_class -> ordered list of
// subscriptions, protected by a writer-preferred lock since reads (one
// per routed envelope) dominate writes (subscribe/unsubscribe, rare).
type registry struct {
	mu   *concurrency.SmartRWMutex
	byClass map[string][]*Subscription
}

func newRegistry() *registry {
	return &registry{
		mu:      concurrency.NewSmartRWMutex(concurrency.MutexConfig{Name: "dispatcher.registry"}),
		byClass: make(map[string][]*Subscription),
	}
}

// subscribe adds or replaces the (class, handlerID) record. Re-subscribing
// the same pair replaces its filters and handler in place.
func (r *registry) subscribe(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byClass[sub.Class]
	for i, existing := range list {
		if existing.HandlerID == sub.HandlerID {
			list[i] = sub
			return
		}
	}
	r.byClass[sub.Class] = append(list, sub)
}

// unsubscribe removes the (class, handlerID) record, reporting whether
// one was found.
func (r *registry) unsubscribe(class, handlerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byClass[class]
	for i, existing := range list {
		if existing.HandlerID == handlerID {
			r.byClass[class] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// unsubscribeAll removes every subscription for class.
func (r *registry) unsubscribeAll(class string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.byClass[class])
	delete(r.byClass, class)
	return n
}

// subscriptionsFor returns a snapshot of the subscriptions for class.
func (r *registry) subscriptionsFor(class string) []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byClass[class]
	out := make([]*Subscription, len(list))
	copy(out, list)
	return out
}
