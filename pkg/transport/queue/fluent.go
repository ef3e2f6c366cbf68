package queue

import (
	"context"

	"github.com/madbomber/smart-message-sub002/pkg/dispatcher"
	"github.com/madbomber/smart-message-sub002/pkg/pattern"
)

// Subscription is the fluent builder returned by Where(): accumulate
// predicates, then call Subscribe(handler) to compile them into a
// pattern and bind it.
type Subscription struct {
	t             *Transport
	builder       pattern.Builder
	class         string
	consumerGroup string
	filters       dispatcher.Filters
}

// Where starts a fluent subscription.
func (t *Transport) Where() *Subscription {
	return &Subscription{t: t, builder: pattern.NewBuilder(), consumerGroup: t.cfg.ConsumerGroup}
}

func (s *Subscription) From(from string) *Subscription {
	s.builder = s.builder.From(from)
	s.filters.From = dispatcher.Literal(from)
	return s
}

func (s *Subscription) To(to string) *Subscription {
	s.builder = s.builder.To(to)
	s.filters.To = dispatcher.Literal(to)
	return s
}

func (s *Subscription) Type(class string) *Subscription {
	s.builder = s.builder.Type(class)
	s.class = class
	return s
}

func (s *Subscription) ConsumerGroup(group string) *Subscription {
	s.consumerGroup = group
	return s
}

// Subscribe compiles the accumulated predicates to a pattern and
// consumer group, then binds handlerID to it.
func (s *Subscription) Subscribe(ctx context.Context, handlerID string, handler dispatcher.Handler) error {
	pat := s.builder.Build()
	class := s.class
	if class == "" {
		class = pat
	}
	return s.t.SubscribePattern(ctx, pat, class, handlerID, handler, s.filters, s.consumerGroup)
}

// SubscribeToRecipient binds handlerID to every message addressed to
// recipient: pattern `#.*.*.<recipient>`.
func (t *Transport) SubscribeToRecipient(ctx context.Context, recipient, handlerID string, handler dispatcher.Handler) error {
	return t.SubscribePattern(ctx, pattern.ToRecipient(recipient), pattern.ToRecipient(recipient), handlerID, handler, dispatcher.Filters{}, t.cfg.ConsumerGroup)
}

// SubscribeFromSender binds handlerID to every message sent by sender:
// pattern `#.*.<sender>.*`.
func (t *Transport) SubscribeFromSender(ctx context.Context, sender, handlerID string, handler dispatcher.Handler) error {
	return t.SubscribePattern(ctx, pattern.FromSender(sender), pattern.FromSender(sender), handlerID, handler, dispatcher.Filters{}, t.cfg.ConsumerGroup)
}

// SubscribeToType binds handlerID to every message of the given type:
// pattern `<type>.#.*.*`.
func (t *Transport) SubscribeToType(ctx context.Context, typ, handlerID string, handler dispatcher.Handler) error {
	pat := typ + ".#.*.*"
	return t.SubscribePattern(ctx, pat, pat, handlerID, handler, dispatcher.Filters{}, t.cfg.ConsumerGroup)
}

// SubscribeToBroadcasts binds handlerID to every unaddressed message:
// pattern `#.*.*.broadcast`.
func (t *Transport) SubscribeToBroadcasts(ctx context.Context, handlerID string, handler dispatcher.Handler) error {
	pat := pattern.Broadcasts()
	return t.SubscribePattern(ctx, pat, pat, handlerID, handler, dispatcher.Filters{}, t.cfg.ConsumerGroup)
}

// SubscribeToAlerts binds handlerID to every pattern in
// pattern.AlertPatterns, returning the first error encountered (if any);
// successfully bound patterns before the failure stay bound.
func (t *Transport) SubscribeToAlerts(ctx context.Context, handlerID string, handler dispatcher.Handler) error {
	for i, pat := range pattern.AlertPatterns() {
		hid := handlerID
		if i > 0 {
			hid = handlerID + "#" + pat
		}
		if err := t.SubscribePattern(ctx, pat, pat, hid, handler, dispatcher.Filters{}, t.cfg.ConsumerGroup); err != nil {
			return err
		}
	}
	return nil
}
