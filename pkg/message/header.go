// Package message defines the typed schema, header, and wire envelope
// shared by every transport: a validated record with a standardized
// header (addressing, identity, versioning) and a payload, encoded
// through a pluggable pkg/serializer codec.
package message

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// processID is this process's publisher_pid, computed once at startup.
var processID = strconv.Itoa(os.Getpid())

// Header is the standard envelope header present on every message,
// carrying identity, addressing, and versioning independent of payload
// shape.
type Header struct {
	UUID         string    `json:"uuid" msgpack:"uuid"`
	MessageClass string    `json:"message_class" msgpack:"message_class"`
	PublishedAt  time.Time `json:"published_at" msgpack:"published_at"`
	PublisherPID string    `json:"publisher_pid" msgpack:"publisher_pid"`
	Version      int       `json:"version" msgpack:"version"`
	From         string    `json:"from" msgpack:"from"`
	To           string    `json:"to,omitempty" msgpack:"to,omitempty"`
	ReplyTo      string    `json:"reply_to,omitempty" msgpack:"reply_to,omitempty"`
	Serializer   string    `json:"serializer" msgpack:"serializer"`
}

// NewHeader constructs a header with a fresh UUID, the given class and
// version, and an unset PublishedAt (set exactly once at publish time).
func NewHeader(class string, version int) Header {
	return Header{
		UUID:         uuid.NewString(),
		MessageClass: class,
		Version:      version,
	}
}

// Broadcast reports whether the header addresses no specific recipient.
func (h Header) Broadcast() bool {
	return h.To == ""
}

// Published reports whether PublishedAt has been assigned.
func (h Header) Published() bool {
	return !h.PublishedAt.IsZero()
}

// Stamp assigns PublishedAt and PublisherPID if unset, returning h
// unchanged otherwise. Transports call this exactly once per publish
// attempt before encoding; it is idempotent so a fan-out publisher that
// stamps once up front leaves per-transport re-stamping a no-op.
func (h Header) Stamp() Header {
	if h.Published() {
		return h
	}
	h.PublishedAt = time.Now().UTC()
	h.PublisherPID = processID
	return h
}
