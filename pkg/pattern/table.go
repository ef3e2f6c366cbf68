package pattern

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
)

// Binding is one (pattern, queue) entry in a Table, carrying the consumer
// group name the binding was created under.
type Binding struct {
	Pattern       string
	Queue         string
	ConsumerGroup string
}

// Table maps routing patterns to the durable queues whose consumers are
// bound to them. Queue names are derived deterministically from the
// pattern string so independent processes that bind the same pattern
// agree on the queue name without coordination.
type Table struct {
	mu       sync.RWMutex
	prefix   string
	bindings []Binding
}

// NewTable creates an empty routing table; queue names are derived as
// "<prefix>.<safe-encoding-of-pattern>".
func NewTable(queuePrefix string) *Table {
	return &Table{prefix: queuePrefix}
}

// QueueName derives the stable queue name for pattern.
func (t *Table) QueueName(pattern string) string {
	return t.prefix + "." + safeEncode(pattern)
}

// Bind records that consumerGroup is consuming the queue derived from
// pattern. Every call appends a binding, so binding the same (pattern,
// consumerGroup) pair twice records it twice (Snapshot lists both and
// QueueStats counts two consumers); the queue name is the same for both,
// and the queue transport starts one worker goroutine per call, so
// repeated Subscribe calls under the same group add workers to one queue.
func (t *Table) Bind(pattern, consumerGroup string) Binding {
	b := Binding{Pattern: pattern, Queue: t.QueueName(pattern), ConsumerGroup: consumerGroup}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings = append(t.bindings, b)
	return b
}

// MatchQueues returns the distinct queue names whose bound patterns match
// routingKey, in first-bound order.
func (t *Table) MatchQueues(routingKey string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]bool)
	var queues []string
	for _, b := range t.bindings {
		if Match(b.Pattern, routingKey) && !seen[b.Queue] {
			seen[b.Queue] = true
			queues = append(queues, b.Queue)
		}
	}
	return queues
}

// Snapshot returns a copy of every binding, sorted by pattern then queue
// then consumer group, for use by management/introspection surfaces such
// as routing_table().
func (t *Table) Snapshot() []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Binding, len(t.bindings))
	copy(out, t.bindings)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		if out[i].Queue != out[j].Queue {
			return out[i].Queue < out[j].Queue
		}
		return out[i].ConsumerGroup < out[j].ConsumerGroup
	})
	return out
}

// safeEncode turns a pattern string into a filesystem/broker-key-safe
// token: wildcard and separator characters are spelled out, then the
// result is hashed to bound its length for very long patterns.
func safeEncode(pattern string) string {
	replacer := strings.NewReplacer(".", "_", "*", "star", "#", "hash")
	readable := replacer.Replace(pattern)
	if len(readable) <= 48 {
		return readable
	}
	sum := sha1.Sum([]byte(pattern))
	return readable[:32] + "_" + hex.EncodeToString(sum[:])[:8]
}
