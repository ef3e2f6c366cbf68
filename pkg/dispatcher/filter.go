package dispatcher

import "regexp"

// Predicate is one field-level filter: a set of alternatives, any of
// which satisfies the predicate ("any of" semantics). Alternatives are
// either literal strings (matched by equality) or pre-compiled regexes
// (matched by full-string search), so per-message dispatch never
// compiles a pattern.
type Predicate struct {
	Literals []string
	Regexes  []*regexp.Regexp
}

// Literal builds a Predicate matching any of the given literal strings.
func Literal(values ...string) Predicate {
	return Predicate{Literals: values}
}

// Regex builds a Predicate matching any of the given regular expressions,
// compiled once at subscription time.
func Regex(patterns ...string) (Predicate, error) {
	p := Predicate{}
	for _, pat := range patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return Predicate{}, err
		}
		p.Regexes = append(p.Regexes, re)
	}
	return p, nil
}

// MustRegex is Regex but panics on an invalid pattern; useful for
// predicates built from compile-time-constant expressions.
func MustRegex(patterns ...string) Predicate {
	p, err := Regex(patterns...)
	if err != nil {
		panic(err)
	}
	return p
}

// matches reports whether value satisfies the predicate.
func (p Predicate) matches(value string) bool {
	for _, lit := range p.Literals {
		if lit == value {
			return true
		}
	}
	for _, re := range p.Regexes {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

func (p Predicate) empty() bool {
	return len(p.Literals) == 0 && len(p.Regexes) == 0
}

// Filters are the optional predicates over header fields a subscription
// declares. An absent predicate (its zero value) imposes no constraint.
// Broadcast, when set, additionally requires `to` to be empty/absent
// regardless of the To predicate.
type Filters struct {
	From      Predicate
	To        Predicate
	ReplyTo   Predicate
	Broadcast *bool
}

// Match reports whether header satisfies every declared predicate.
func (f Filters) Match(from, to, replyTo string) bool {
	if !f.From.empty() && !f.From.matches(from) {
		return false
	}
	if !f.To.empty() && !f.To.matches(to) {
		return false
	}
	if !f.ReplyTo.empty() && !f.ReplyTo.matches(replyTo) {
		return false
	}
	if f.Broadcast != nil {
		isBroadcast := to == ""
		if *f.Broadcast != isBroadcast {
			return false
		}
	}
	return true
}
