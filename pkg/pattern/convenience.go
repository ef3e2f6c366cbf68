package pattern

// ToRecipient builds a pattern matching any message addressed to
// recipient, regardless of namespace, type, or sender.
func ToRecipient(recipient string) string {
	return NewBuilder().To(recipient).Build()
}

// FromSender builds a pattern matching any message sent by sender.
func FromSender(sender string) string {
	return NewBuilder().From(sender).Build()
}

// ToType builds a pattern matching any message of the given type,
// regardless of sender or recipient.
func ToType(typ string) string {
	return NewBuilder().Type(typ).Build()
}

// Broadcasts builds the pattern matching every unaddressed message
// (`to` empty, rendered as the literal "broadcast" segment).
func Broadcasts() string {
	return NewBuilder().To("").Build()
}

// AlertPatterns returns the disjunction of patterns spec.md §4.7 treats as
// operational alerts. The source's "contains alert" form has no
// equivalent in this grammar (segments are literal/*/#, no substring
// wildcard), so each alert-like type is matched by a pattern pinning the
// namespace segment (which for any class equals its type segment) to the
// literal type, leaving from/to unconstrained.
func AlertPatterns() []string {
	return []string{
		"emergency.*.*.*",
		"alert.*.*.*",
		"alarm.*.*.*",
		"critical.*.*.*",
	}
}
