package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/broker/memory"
	"github.com/madbomber/smart-message-sub002/pkg/dispatcher"
	"github.com/madbomber/smart-message-sub002/pkg/message"
	"github.com/madbomber/smart-message-sub002/pkg/serializer"
	"github.com/madbomber/smart-message-sub002/pkg/test"
)

type QueueSuite struct {
	test.Suite
}

func TestQueueSuite(t *testing.T) {
	test.Run(t, new(QueueSuite))
}

func (s *QueueSuite) TestRoutingKeyMatchesWorkedExample() {
	key, err := RoutingKey("Payment", "api", "payment_service")
	s.Require().NoError(err)
	s.Equal("payment.payment.api.payment_service", key)
}

func (s *QueueSuite) TestRoutingKeyRejectsDottedRecipient() {
	_, err := RoutingKey("Payment", "api", "bad.recipient")
	s.Error(err)
}

func (s *QueueSuite) TestRoutingKeyBroadcastSegment() {
	key, err := RoutingKey("Alert", "monitor", "")
	s.Require().NoError(err)
	s.Equal("alert.alert.monitor.broadcast", key)
}

func (s *QueueSuite) TestPublishAndConsumeViaDefaultSubscription() {
	b := memory.New()
	disp := dispatcher.New(dispatcher.Config{WorkerCount: 2, QueueDepth: 8})
	tr := New(b, serializer.JSON{}, disp, Config{BlockTime: 50 * time.Millisecond})

	var mu sync.Mutex
	var got message.Envelope
	s.Require().NoError(tr.Subscribe(s.Ctx, "Payment", "h1", func(e message.Envelope) error {
		mu.Lock()
		got = e
		mu.Unlock()
		return nil
	}, dispatcher.Filters{}))

	env := message.Envelope{Header: message.Header{UUID: "u1", MessageClass: "Payment", From: "api", To: "payment_service"}}
	s.Require().NoError(tr.Publish(s.Ctx, env, ""))

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got.Header.UUID == "u1"
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	s.True(got.Header.Published())
	s.NotEmpty(got.Header.PublisherPID)
}

func (s *QueueSuite) TestConsumerGroupLoadBalancesAcrossWorkers() {
	b := memory.New()
	disp := dispatcher.New(dispatcher.Config{WorkerCount: 2, QueueDepth: 8})
	tr := New(b, serializer.JSON{}, disp, Config{BlockTime: 50 * time.Millisecond})

	var mu sync.Mutex
	counts := map[string]int{}
	handler := func(id string) dispatcher.Handler {
		return func(e message.Envelope) error {
			mu.Lock()
			counts[id]++
			mu.Unlock()
			return nil
		}
	}

	s.Require().NoError(tr.Where().Type("Payment").ConsumerGroup("workers").Subscribe(s.Ctx, "w1", handler("w1")))
	s.Require().NoError(tr.Where().Type("Payment").ConsumerGroup("workers").Subscribe(s.Ctx, "w2", handler("w2")))

	for i := 0; i < 10; i++ {
		env := message.Envelope{Header: message.Header{UUID: "u", MessageClass: "Payment", From: "api", To: "payment_service"}}
		s.Require().NoError(tr.Publish(s.Ctx, env, ""))
	}

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		total := 0
		for _, n := range counts {
			total += n
		}
		return total == 10
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *QueueSuite) TestHandlerFailureIsDeadLettered() {
	b := memory.New()

	// The dispatcher's DeadLetter hook needs the transport and the
	// transport needs the dispatcher; resolve the cycle the way a real
	// assembler would, by deferring the hook's target until the transport
	// exists.
	var tr *Transport
	disp := dispatcher.New(dispatcher.Config{WorkerCount: 1, QueueDepth: 4, DeadLetter: func(ctx context.Context, herr *dispatcher.HandlerError, envelope message.Envelope) {
		tr.HandleDeadLetter(ctx, herr, envelope)
	}})
	tr = New(b, serializer.JSON{}, disp, Config{BlockTime: 50 * time.Millisecond, DeadLetterQueue: true})

	s.Require().NoError(tr.Subscribe(s.Ctx, "Payment", "h1", func(e message.Envelope) error {
		return failingHandlerError{}
	}, dispatcher.Filters{}))

	queue := tr.RoutingTable()[0].Queue
	dlqQueue := tr.cfg.DeadLetterPrefix + "." + queue

	env := message.Envelope{Header: message.Header{UUID: "u1", MessageClass: "Payment", From: "api", To: "payment_service"}}
	s.Require().NoError(tr.Publish(s.Ctx, env, ""))

	s.Eventually(func() bool {
		n, err := b.LLen(s.Ctx, dlqQueue)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

type failingHandlerError struct{}

func (failingHandlerError) Error() string { return "handler failed" }
