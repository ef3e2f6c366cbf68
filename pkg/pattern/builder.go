package pattern

import "strings"

// Builder accumulates optional (type, from, to) predicates and compiles
// them into a pattern string. It is pure and safe to share across
// goroutines: Build never mutates the receiver.
//
// The open question of whether `type` should also match the message
// class's derived namespace segment is resolved here: Type sets only the
// `<type>` segment. The namespace segment is pinned only when Namespace
// is called explicitly, and is emitted as `#.` (any namespace) when unset
// — see Build.
type Builder struct {
	namespace string
	typ       string
	from      string
	to        string

	hasNamespace bool
	hasType      bool
	hasFrom      bool
	hasTo        bool
}

// NewBuilder returns an empty Builder; every predicate defaults to
// wildcard until explicitly set.
func NewBuilder() Builder {
	return Builder{}
}

// Namespace fixes the leading namespace segment (normally derived from a
// message class name). Unset, the pattern matches any namespace via `#.`.
func (b Builder) Namespace(namespace string) Builder {
	b.namespace = normalizeSegment(namespace)
	b.hasNamespace = true
	return b
}

// Type fixes the `<type>` segment.
func (b Builder) Type(typ string) Builder {
	b.typ = normalizeSegment(typ)
	b.hasType = true
	return b
}

// From fixes the `<from>` segment.
func (b Builder) From(from string) Builder {
	b.from = normalizeSegment(from)
	b.hasFrom = true
	return b
}

// To fixes the `<to>` segment. An empty recipient is rendered as the
// literal segment "broadcast", matching the queue transport's routing-key
// convention for unaddressed messages.
func (b Builder) To(to string) Builder {
	if to == "" {
		b.to = "broadcast"
	} else {
		b.to = normalizeSegment(to)
	}
	b.hasTo = true
	return b
}

// Build emits the pattern string `<namespace>.<type>.<from>.<to>`,
// substituting `*` for any predicate left unset. When the namespace was
// never set, the pattern is prefixed with `#.` instead of `*.` so it also
// matches routing keys with a different segment count than 4 — this is
// the only place `#` appears in a built pattern.
func (b Builder) Build() string {
	segs := []string{seg(b.typ, b.hasType), seg(b.from, b.hasFrom), seg(b.to, b.hasTo)}
	rest := strings.Join(segs, ".")
	if b.hasNamespace {
		return b.namespace + "." + rest
	}
	return "#." + rest
}

func seg(v string, has bool) string {
	if !has {
		return "*"
	}
	return v
}

// normalizeSegment lowercases v and replaces `-` with `_`, matching the
// routing-key segment normalization rule.
func normalizeSegment(v string) string {
	return NormalizeSegment(v)
}

// NormalizeSegment applies the routing-key segment normalization rule
// (lowercase, `-` becomes `_`) to v. Exported so transports can derive
// channel/routing-key segments the same way the builder does.
func NormalizeSegment(v string) string {
	v = strings.ToLower(v)
	return strings.ReplaceAll(v, "-", "_")
}
