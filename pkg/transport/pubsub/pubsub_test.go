package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/broker/memory"
	"github.com/madbomber/smart-message-sub002/pkg/dispatcher"
	"github.com/madbomber/smart-message-sub002/pkg/message"
	"github.com/madbomber/smart-message-sub002/pkg/serializer"
	"github.com/madbomber/smart-message-sub002/pkg/test"
)

type PubSubSuite struct {
	test.Suite
}

func TestPubSubSuite(t *testing.T) {
	test.Run(t, new(PubSubSuite))
}

func (s *PubSubSuite) newTransport(cfg Config) *Transport {
	b := memory.New()
	disp := dispatcher.New(dispatcher.Config{WorkerCount: 2, QueueDepth: 8})
	return New("pubsub", b, serializer.JSON{}, disp, cfg)
}

func (s *PubSubSuite) TestBasicChannelDeliversToSubscriber() {
	tr := s.newTransport(Config{})

	var mu sync.Mutex
	var got message.Envelope
	s.Require().NoError(tr.Subscribe(s.Ctx, "Order", "h1", func(e message.Envelope) error {
		mu.Lock()
		got = e
		mu.Unlock()
		return nil
	}, dispatcher.Filters{}))

	env := message.Envelope{Header: message.Header{UUID: "u1", MessageClass: "Order", From: "api", To: "billing"}}
	s.Require().NoError(tr.Publish(s.Ctx, env, ""))

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got.Header.UUID == "u1"
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	s.True(got.Header.Published())
	s.NotEmpty(got.Header.PublisherPID)
}

func (s *PubSubSuite) TestEnhancedModePublishesDerivedChannel() {
	tr := s.newTransport(Config{Enhanced: true})

	delivered := make(chan message.Envelope, 1)
	s.Require().NoError(tr.SubscribePattern(s.Ctx, "order.#"))
	s.Require().NoError(tr.Subscribe(s.Ctx, "Order", "h1", func(e message.Envelope) error {
		delivered <- e
		return nil
	}, dispatcher.Filters{}))

	raw, unsubRaw, err := tr.base.Broker.Subscribe(s.Ctx, "order.api.billing")
	s.Require().NoError(err)
	defer unsubRaw()

	env := message.Envelope{Header: message.Header{UUID: "u2", MessageClass: "Order", From: "api", To: "billing"}}
	s.Require().NoError(tr.Publish(s.Ctx, env, ""))

	select {
	case e := <-delivered:
		s.Equal("u2", e.Header.UUID)
	case <-time.After(time.Second):
		s.Fail("envelope not delivered through either channel")
	}

	select {
	case payload := <-raw:
		decoded, err := tr.codec.Decode(payload)
		s.Require().NoError(err)
		s.Equal("u2", decoded.Header.UUID)
	case <-time.After(time.Second):
		s.Fail("nothing published on the derived channel order.api.billing")
	}
}

func (s *PubSubSuite) TestUnsubscribeStopsDelivery() {
	tr := s.newTransport(Config{})

	called := make(chan struct{}, 1)
	s.Require().NoError(tr.Subscribe(s.Ctx, "Order", "h1", func(e message.Envelope) error {
		called <- struct{}{}
		return nil
	}, dispatcher.Filters{}))

	s.True(tr.Unsubscribe("Order", "h1"))

	env := message.Envelope{Header: message.Header{UUID: "u3", MessageClass: "Order", From: "api", To: "billing"}}
	s.Require().NoError(tr.Publish(s.Ctx, env, ""))

	select {
	case <-called:
		s.Fail("handler should not have been invoked after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}
