package message

import (
	"regexp"
	"strings"

	"github.com/madbomber/smart-message-sub002/pkg/pattern"
	"github.com/madbomber/smart-message-sub002/pkg/validator"
)

// Message is the behavior every typed message class implements: identity
// of its class descriptor, access to the standard header, property
// validation, and conversion to/from the wire envelope.
type Message interface {
	Class() string
	Header() Header
	SetHeader(Header)
	Properties() map[string]interface{}
	Validate() *ValidationError
	ToEnvelope() (Envelope, error)
}

// Base is embedded by generated/declared message structs to provide the
// header, descriptor link, and an "extras" bag preserving unknown wire
// fields across a decode/re-encode round trip (forward compatibility).
type Base struct {
	descriptor *ClassDescriptor
	header     Header
	extras     map[string]interface{}
}

// NewBase constructs a Base for desc, assigning a fresh header from the
// class's defaults. props supplies explicit property values; any
// declared property absent from props falls back to its descriptor
// default.
func NewBase(desc *ClassDescriptor, props map[string]interface{}) Base {
	h := NewHeader(desc.Name, desc.Version)
	h.From = desc.DefaultFrom
	h.To = desc.DefaultTo
	h.ReplyTo = desc.DefaultReplyTo
	h.Serializer = desc.DefaultSerializer

	resolved := make(map[string]interface{}, len(desc.Properties))
	for _, p := range desc.Properties {
		if v, ok := props[p.Name]; ok {
			resolved[p.Name] = v
			continue
		}
		if v, ok := p.resolveDefault(); ok {
			resolved[p.Name] = v
		}
	}

	return Base{descriptor: desc, header: h, extras: resolved}
}

func (b *Base) Class() string { return b.descriptor.Name }

func (b *Base) Header() Header { return b.header }

func (b *Base) SetHeader(h Header) { b.header = h }

func (b *Base) Properties() map[string]interface{} {
	out := make(map[string]interface{}, len(b.extras))
	for k, v := range b.extras {
		out[k] = v
	}
	return out
}

// Set assigns a property value, used by generated accessors.
func (b *Base) Set(name string, value interface{}) {
	if b.extras == nil {
		b.extras = make(map[string]interface{})
	}
	b.extras[name] = value
}

// Get reads a property value, used by generated accessors.
func (b *Base) Get(name string) (interface{}, bool) {
	v, ok := b.extras[name]
	return v, ok
}

// Validate checks every required property is present and that From/To/
// ReplyTo are header-level valid: From is non-empty, and each of the
// three, once normalized the way the queue transport normalizes routing
// segments, passes pkg/validator's routing-segment charset check. Callers
// that rely on a class default populate From during NewBase; it still
// fails here if the class declared no default and the caller never set
// one.
func (b *Base) Validate() *ValidationError {
	verr := &ValidationError{Class: b.descriptor.Name}

	for _, p := range b.descriptor.Properties {
		if !p.Required {
			continue
		}
		if _, ok := b.extras[p.Name]; !ok {
			verr.Add(p.Name, "required property missing")
		}
	}

	from := strings.TrimSpace(b.header.From)
	if from == "" {
		verr.Add("from", "from is required at publish time")
	} else if !validator.IsRoutingSegment(pattern.NormalizeSegment(from)) {
		verr.Add("from", "from must be a valid routing segment")
	}
	if b.header.To != "" && !validator.IsRoutingSegment(pattern.NormalizeSegment(b.header.To)) {
		verr.Add("to", "recipient must be a valid routing segment")
	}
	if b.header.ReplyTo != "" && !validator.IsRoutingSegment(pattern.NormalizeSegment(b.header.ReplyTo)) {
		verr.Add("reply_to", "reply_to must be a valid routing segment")
	}

	if !verr.HasErrors() {
		return nil
	}
	return verr
}

// ToEnvelope produces the (header, payload) pair for the serializer.
// PublishedAt is NOT set here — it is assigned exactly once by the
// transport at actual publish time, not at envelope construction.
func (b *Base) ToEnvelope() (Envelope, error) {
	if verr := b.Validate(); verr != nil {
		return Envelope{}, verr
	}
	return Envelope{Header: b.header, Payload: b.Properties()}, nil
}

var namespaceStrip = regexp.MustCompile(`[^a-z0-9_]+`)

// Namespace derives the routing namespace segment from a message class
// name: lowercased, punctuation stripped, matching the routing-key
// grammar's segment charset.
func Namespace(class string) string {
	lower := strings.ToLower(class)
	lower = strings.ReplaceAll(lower, "-", "_")
	return namespaceStrip.ReplaceAllString(lower, "")
}
