package message

import (
	"testing"

	"github.com/madbomber/smart-message-sub002/pkg/test"
)

type MessageSuite struct {
	test.Suite
}

func TestMessageSuite(t *testing.T) {
	test.Run(t, new(MessageSuite))
}

func orderDescriptor() *ClassDescriptor {
	return &ClassDescriptor{
		Name:    "OrderCreated",
		Version: 1,
		Properties: []PropertyDescriptor{
			{Name: "order_id", Required: true},
			{Name: "amount", Required: false, Default: 0},
		},
		DefaultFrom: "order_service",
	}
}

func (s *MessageSuite) TestNewBaseAssignsUUIDAndDefaults() {
	b := NewBase(orderDescriptor(), map[string]interface{}{"order_id": "o-1"})
	s.NotEmpty(b.Header().UUID)
	s.False(b.Header().Published())
	s.Equal("order_service", b.Header().From)
	v, ok := b.Get("amount")
	s.True(ok)
	s.Equal(0, v)
}

func (s *MessageSuite) TestValidateRejectsMissingRequiredProperty() {
	b := NewBase(orderDescriptor(), map[string]interface{}{})
	verr := b.Validate()
	s.NotNil(verr)
	s.True(verr.HasErrors())
}

func (s *MessageSuite) TestValidateRejectsEmptyFrom() {
	desc := orderDescriptor()
	desc.DefaultFrom = ""
	b := NewBase(desc, map[string]interface{}{"order_id": "o-1"})
	verr := b.Validate()
	s.NotNil(verr)
}

func (s *MessageSuite) TestToEnvelopeRoundTrip() {
	b := NewBase(orderDescriptor(), map[string]interface{}{"order_id": "o-1"})
	env, err := b.ToEnvelope()
	s.NoError(err)
	s.Equal("OrderCreated", env.Header.MessageClass)

	reconstructed, err := FromEnvelope(orderDescriptor(), env)
	s.NoError(err)
	s.Equal(env.Header.UUID, reconstructed.Header().UUID)
	v, _ := reconstructed.Get("order_id")
	s.Equal("o-1", v)
}

func (s *MessageSuite) TestFromEnvelopeRejectsVersionMismatch() {
	desc := orderDescriptor()
	env := Envelope{Header: Header{MessageClass: "OrderCreated", Version: 2}}
	_, err := FromEnvelope(desc, env)
	s.Error(err)
	_, ok := err.(*VersionMismatch)
	s.True(ok)
}

func (s *MessageSuite) TestValidateRejectsInvalidRoutingSegments() {
	desc := orderDescriptor()
	desc.DefaultTo = "billing.west"
	b := NewBase(desc, map[string]interface{}{"order_id": "o-1"})
	verr := b.Validate()
	s.NotNil(verr)
	s.True(verr.HasErrors())
}

func (s *MessageSuite) TestValidateAcceptsNormalizedRoutingSegments() {
	desc := orderDescriptor()
	desc.DefaultFrom = "Order-Service"
	desc.DefaultTo = "Billing"
	b := NewBase(desc, map[string]interface{}{"order_id": "o-1"})
	s.Nil(b.Validate())
}

func (s *MessageSuite) TestNamespaceDerivation() {
	s.Equal("ordercreated", Namespace("OrderCreated"))
	s.Equal("order_created", Namespace("Order-Created"))
}

func (s *MessageSuite) TestStampAssignsPublishedAtAndPublisherPIDOnce() {
	h := NewHeader("OrderCreated", 1)
	s.False(h.Published())
	s.Empty(h.PublisherPID)

	stamped := h.Stamp()
	s.True(stamped.Published())
	s.NotEmpty(stamped.PublisherPID)

	again := stamped.Stamp()
	s.Equal(stamped.PublishedAt, again.PublishedAt)
	s.Equal(stamped.PublisherPID, again.PublisherPID)
}
