package fanout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/dispatcher"
	"github.com/madbomber/smart-message-sub002/pkg/message"
	"github.com/madbomber/smart-message-sub002/pkg/test"
	"github.com/madbomber/smart-message-sub002/pkg/transport"
)

type FanoutSuite struct {
	test.Suite
}

func TestFanoutSuite(t *testing.T) {
	test.Run(t, new(FanoutSuite))
}

// recordingTransport is a minimal transport.Transport test double that
// records Publish calls and can be made to fail.
type recordingTransport struct {
	publishErr error
	calls      int
	lastEnv    message.Envelope
}

func (r *recordingTransport) Publish(ctx context.Context, env message.Envelope, routingHint string) error {
	r.calls++
	r.lastEnv = env
	return r.publishErr
}
func (r *recordingTransport) Subscribe(ctx context.Context, class, handlerID string, handler dispatcher.Handler, filters dispatcher.Filters) error {
	return nil
}
func (r *recordingTransport) Unsubscribe(class, handlerID string) bool { return false }
func (r *recordingTransport) UnsubscribeAll(class string) int          { return 0 }
func (r *recordingTransport) Connected() bool                          { return true }
func (r *recordingTransport) Shutdown(ctx context.Context, timeout time.Duration) error {
	return nil
}

var _ transport.Transport = (*recordingTransport)(nil)

func (s *FanoutSuite) TestAllTransportsSucceed() {
	a := &recordingTransport{}
	b := &recordingTransport{}
	p := New(Named{Name: "a", Transport: a}, Named{Name: "b", Transport: b})

	env := message.Envelope{Header: message.Header{UUID: "u1"}}
	s.NoError(p.Publish(s.Ctx, env, ""))
	s.Equal(1, a.calls)
	s.Equal(1, b.calls)

	// Stamped once before fan-out, so every transport sees the same
	// published_at/publisher_pid for this publish attempt.
	s.True(a.lastEnv.Header.Published())
	s.Equal(a.lastEnv.Header.PublishedAt, b.lastEnv.Header.PublishedAt)
	s.Equal(a.lastEnv.Header.PublisherPID, b.lastEnv.Header.PublisherPID)
}

func (s *FanoutSuite) TestPartialFailureStillReportsSuccess() {
	a := &recordingTransport{}
	b := &recordingTransport{publishErr: errors.New("down")}
	p := New(Named{Name: "a", Transport: a}, Named{Name: "b", Transport: b})

	env := message.Envelope{Header: message.Header{UUID: "u2"}}
	s.NoError(p.Publish(s.Ctx, env, ""))
}

func (s *FanoutSuite) TestAllTransportsFailingReturnsAggregatedError() {
	a := &recordingTransport{publishErr: errors.New("down-a")}
	b := &recordingTransport{publishErr: errors.New("down-b")}
	p := New(Named{Name: "a", Transport: a}, Named{Name: "b", Transport: b})

	env := message.Envelope{Header: message.Header{UUID: "u3"}}
	err := p.Publish(s.Ctx, env, "")
	s.Error(err)

	var perr *transport.PublishError
	s.ErrorAs(err, &perr)
	s.Len(perr.Errors, 2)
}
