package pattern

import (
	"testing"

	"github.com/madbomber/smart-message-sub002/pkg/test"
)

type PatternSuite struct {
	test.Suite
}

func TestPatternSuite(t *testing.T) {
	test.Run(t, new(PatternSuite))
}

func (s *PatternSuite) TestLiteralMatch() {
	s.True(Match("order.created.web.svc", "order.created.web.svc"))
	s.False(Match("order.created.web.svc", "order.created.web.other"))
}

func (s *PatternSuite) TestSingleSegmentWildcard() {
	s.True(Match("order.#.*.*", "order.created.web.svc"))
	s.True(Match("order.#.*.*", "order.updated.mobile.svc.v2")) // # eats the extra segment
	s.False(Match("order.#.*.*", "payment.created.web.svc"))
}

func (s *PatternSuite) TestHashAbsorbsZeroOrMore() {
	s.True(Match("#.*.payment_service", "payment.payment.api.payment_service"))
	s.True(Match("#.*.worker_pool", "task.task.w1.worker_pool"))
}

func (s *PatternSuite) TestHashAtStartMatchesEmptyPrefix() {
	s.True(Match("#.a.b", "a.b"))
}

func (s *PatternSuite) TestCaseInsensitiveSegments() {
	s.True(Match("Order.Created.*.*", "order.created.web.svc"))
}

func (s *PatternSuite) TestLengthMismatchWithoutHash() {
	s.False(Match("a.*.*", "a.b.c.d"))
	s.False(Match("a.*.*.*", "a.b.c"))
}
