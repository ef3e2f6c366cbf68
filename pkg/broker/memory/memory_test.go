package memory

import (
	"testing"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/test"
)

type MemoryBrokerSuite struct {
	test.Suite
}

func TestMemoryBrokerSuite(t *testing.T) {
	test.Run(t, new(MemoryBrokerSuite))
}

func (s *MemoryBrokerSuite) TestPublishSubscribeDeliversPayload() {
	b := New()
	defer b.Close()

	ch, unsub, err := b.Subscribe(s.Ctx, "orders.order.api.billing")
	s.Require().NoError(err)
	defer unsub()

	s.Require().NoError(b.Publish(s.Ctx, "orders.order.api.billing", []byte("hello")))

	select {
	case got := <-ch:
		s.Equal("hello", string(got))
	case <-time.After(time.Second):
		s.Fail("did not receive published payload")
	}
}

func (s *MemoryBrokerSuite) TestPSubscribeMatchesWildcardPattern() {
	b := New()
	defer b.Close()

	ch, unsub, err := b.PSubscribe(s.Ctx, "order.#.billing")
	s.Require().NoError(err)
	defer unsub()

	s.Require().NoError(b.Publish(s.Ctx, "order.order.api.billing", []byte("matched")))
	s.Require().NoError(b.Publish(s.Ctx, "order.order.api.shipping", []byte("unmatched")))

	select {
	case got := <-ch:
		s.Equal("order.order.api.billing", got.Channel)
		s.Equal("matched", string(got.Payload))
	case <-time.After(time.Second):
		s.Fail("did not receive matching pattern message")
	}

	select {
	case got := <-ch:
		s.Fail("received unexpected message", "channel", got.Channel)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *MemoryBrokerSuite) TestLPushBRPopFIFOOrdering() {
	b := New()
	defer b.Close()

	n, err := b.LPush(s.Ctx, "queue-a", []byte("first"))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = b.LPush(s.Ctx, "queue-a", []byte("second"))
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	got, err := b.BRPop(s.Ctx, "queue-a", time.Second)
	s.Require().NoError(err)
	s.Equal("first", string(got))

	got, err = b.BRPop(s.Ctx, "queue-a", time.Second)
	s.Require().NoError(err)
	s.Equal("second", string(got))
}

func (s *MemoryBrokerSuite) TestBRPopTimesOutWithNilPayload() {
	b := New()
	defer b.Close()

	got, err := b.BRPop(s.Ctx, "empty-queue", 20*time.Millisecond)
	s.NoError(err)
	s.Nil(got)
}

func (s *MemoryBrokerSuite) TestBRPopWakesOnPush() {
	b := New()
	defer b.Close()

	result := make(chan []byte, 1)
	go func() {
		got, _ := b.BRPop(s.Ctx, "queue-b", 2*time.Second)
		result <- got
	}()

	time.Sleep(20 * time.Millisecond)
	_, err := b.LPush(s.Ctx, "queue-b", []byte("woke-up"))
	s.Require().NoError(err)

	select {
	case got := <-result:
		s.Equal("woke-up", string(got))
	case <-time.After(time.Second):
		s.Fail("BRPop did not wake on push")
	}
}

func (s *MemoryBrokerSuite) TestLTrimCapsListLength() {
	b := New()
	defer b.Close()

	for i := 0; i < 5; i++ {
		_, err := b.LPush(s.Ctx, "queue-c", []byte("x"))
		s.Require().NoError(err)
	}

	s.Require().NoError(b.LTrim(s.Ctx, "queue-c", 3))

	n, err := b.LLen(s.Ctx, "queue-c")
	s.Require().NoError(err)
	s.Equal(int64(3), n)
}

func (s *MemoryBrokerSuite) TestCloseRejectsFurtherOperations() {
	b := New()
	s.Require().NoError(b.Close())

	s.False(b.Healthy(s.Ctx))
	s.Error(b.Publish(s.Ctx, "ch", []byte("x")))
	_, _, err := b.Subscribe(s.Ctx, "ch")
	s.Error(err)
}
