package pattern

import (
	"testing"

	"github.com/madbomber/smart-message-sub002/pkg/test"
)

type BuilderSuite struct {
	test.Suite
}

func TestBuilderSuite(t *testing.T) {
	test.Run(t, new(BuilderSuite))
}

func (s *BuilderSuite) TestEmptyBuilderIsWideOpen() {
	s.Equal("#.*.*.*", NewBuilder().Build())
}

func (s *BuilderSuite) TestNamespaceIsPinnedWithoutHash() {
	s.Equal("payment.*.*.*", NewBuilder().Namespace("payment").Build())
}

func (s *BuilderSuite) TestAllPredicatesSet() {
	p := NewBuilder().Namespace("payment").Type("created").From("api").To("payment_service").Build()
	s.Equal("payment.created.api.payment_service", p)
}

func (s *BuilderSuite) TestEmptyToBecomesBroadcastLiteral() {
	s.Equal("#.*.*.broadcast", NewBuilder().To("").Build())
}

func (s *BuilderSuite) TestNormalizesDashesAndCase() {
	p := NewBuilder().Type("Order-Created").Build()
	s.Equal("#.order_created.*.*", p)
}

func (s *BuilderSuite) TestConvenienceConstructors() {
	s.Equal("#.*.*.payment_service", ToRecipient("payment_service"))
	s.Equal("#.*.api.*", FromSender("api"))
	s.Equal("#.alert.*.*", ToType("alert"))
	s.Equal("#.*.*.broadcast", Broadcasts())
	s.Equal([]string{"emergency.*.*.*", "alert.*.*.*", "alarm.*.*.*", "critical.*.*.*"}, AlertPatterns())
}
