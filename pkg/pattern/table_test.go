package pattern

import (
	"testing"

	"github.com/madbomber/smart-message-sub002/pkg/test"
)

type TableSuite struct {
	test.Suite
}

func TestTableSuite(t *testing.T) {
	test.Run(t, new(TableSuite))
}

func (s *TableSuite) TestBindDerivesStableQueueName() {
	tbl := NewTable("mq")
	b1 := tbl.Bind("#.*.payment_service", "g1")
	b2 := tbl.Bind("#.*.payment_service", "g1")
	s.Equal(b1.Queue, b2.Queue)
}

func (s *TableSuite) TestMatchQueuesDeduplicates() {
	tbl := NewTable("mq")
	tbl.Bind("#.*.payment_service", "g1")
	tbl.Bind("#.*.payment_service", "g2") // same pattern, different group: same queue name

	queues := tbl.MatchQueues("payment.payment.api.payment_service")
	s.Len(queues, 1)
}

func (s *TableSuite) TestMatchQueuesOnlyMatchingPatterns() {
	tbl := NewTable("mq")
	tbl.Bind("order.#.*.*", "g1")
	tbl.Bind("payment.#.*.*", "g1")

	queues := tbl.MatchQueues("order.created.web.svc")
	s.Len(queues, 1)
}

func (s *TableSuite) TestSnapshotIsSorted() {
	tbl := NewTable("mq")
	tbl.Bind("b.*.*.*", "g1")
	tbl.Bind("a.*.*.*", "g1")

	snap := tbl.Snapshot()
	s.Len(snap, 2)
	s.Equal("a.*.*.*", snap[0].Pattern)
}
