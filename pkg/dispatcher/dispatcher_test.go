package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/message"
	"github.com/madbomber/smart-message-sub002/pkg/test"
)

type DispatcherSuite struct {
	test.Suite
}

func TestDispatcherSuite(t *testing.T) {
	test.Run(t, new(DispatcherSuite))
}

func env(uuid, from, to string) message.Envelope {
	return message.Envelope{Header: message.Header{UUID: uuid, MessageClass: "HealthCheck", From: from, To: to}}
}

func (s *DispatcherSuite) TestBroadcastFanOutToMultipleSubscribers() {
	d := New(Config{WorkerCount: 2, QueueDepth: 8})

	var mu sync.Mutex
	var gotA, gotB string

	d.Subscribe("HealthCheck", "A", func(e message.Envelope) error {
		mu.Lock()
		gotA = e.Header.UUID
		mu.Unlock()
		return nil
	}, Filters{})
	d.Subscribe("HealthCheck", "B", func(e message.Envelope) error {
		mu.Lock()
		gotB = e.Header.UUID
		mu.Unlock()
		return nil
	}, Filters{})

	err := d.Route(s.Ctx, "HealthCheck", env("u1", "health", ""))
	s.NoError(err)

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotA == "u1" && gotB == "u1"
	}, time.Second, 5*time.Millisecond)
}

func (s *DispatcherSuite) TestNonMatchingFilterIsDropped() {
	d := New(Config{WorkerCount: 1, QueueDepth: 4})

	called := make(chan struct{}, 1)
	d.Subscribe("Order", "h1", func(e message.Envelope) error {
		called <- struct{}{}
		return nil
	}, Filters{To: Literal("billing")})

	err := d.Route(s.Ctx, "Order", env("u1", "api", "shipping"))
	s.NoError(err)

	select {
	case <-called:
		s.Fail("handler should not have been invoked")
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *DispatcherSuite) TestResubscribeReplacesFilters() {
	d := New(Config{WorkerCount: 1, QueueDepth: 4})

	d.Subscribe("Order", "h1", func(e message.Envelope) error { return nil }, Filters{To: Literal("billing")})
	d.Subscribe("Order", "h1", func(e message.Envelope) error { return nil }, Filters{To: Literal("shipping")})

	subs := d.registry.subscriptionsFor("Order")
	s.Len(subs, 1)
	s.True(subs[0].Filters.To.matches("shipping"))
}

func (s *DispatcherSuite) TestUnsubscribeReportsRemoval() {
	d := New(Config{WorkerCount: 1, QueueDepth: 4})
	d.Subscribe("Order", "h1", func(e message.Envelope) error { return nil }, Filters{})

	s.True(d.Unsubscribe("Order", "h1"))
	s.False(d.Unsubscribe("Order", "h1"))
}

func (s *DispatcherSuite) TestHandlerErrorIsDeadLettered() {
	var mu sync.Mutex
	var dlqHits int

	d := New(Config{WorkerCount: 1, QueueDepth: 4, DeadLetter: func(ctx context.Context, herr *HandlerError, envelope message.Envelope) {
		mu.Lock()
		dlqHits++
		mu.Unlock()
	}})

	d.Subscribe("Order", "h1", func(e message.Envelope) error {
		return errors.New("boom")
	}, Filters{})

	s.NoError(d.Route(s.Ctx, "Order", env("u1", "api", "billing")))

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return dlqHits == 1
	}, time.Second, 5*time.Millisecond)
}

func (s *DispatcherSuite) TestHandlerPanicRecovered() {
	d := New(Config{WorkerCount: 1, QueueDepth: 4})
	d.Subscribe("Order", "h1", func(e message.Envelope) error {
		panic("kaboom")
	}, Filters{})

	s.NotPanics(func() {
		s.NoError(d.Route(s.Ctx, "Order", env("u1", "api", "billing")))
		time.Sleep(20 * time.Millisecond)
	})
}

func (s *DispatcherSuite) TestBroadcastPredicate() {
	isBroadcast := true
	f := Filters{Broadcast: &isBroadcast}
	s.True(f.Match("svc", "", ""))
	s.False(f.Match("svc", "recipient", ""))
}
