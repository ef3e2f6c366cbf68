package serializer

import (
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/errors"
	"github.com/madbomber/smart-message-sub002/pkg/message"
	"github.com/vmihailenco/msgpack/v5"
)

// msgpackEnvelope mirrors wireEnvelope but uses a real time.Time field —
// msgpack encodes time.Time natively, unlike JSON's string formatting.
type msgpackEnvelope struct {
	UUID         string                 `msgpack:"uuid"`
	MessageClass string                 `msgpack:"message_class"`
	PublishedAt  time.Time              `msgpack:"published_at"`
	PublisherPID string                 `msgpack:"publisher_pid"`
	Version      int                    `msgpack:"version"`
	From         string                 `msgpack:"from"`
	To           string                 `msgpack:"to,omitempty"`
	ReplyTo      string                 `msgpack:"reply_to,omitempty"`
	Serializer   string                 `msgpack:"serializer"`
	Payload      map[string]interface{} `msgpack:"payload"`
}

// Msgpack is a compact binary codec, preferred for queue-transport
// payloads where wire size matters more than human readability.
// Registered under the name "msgpack".
type Msgpack struct{}

// NewMsgpack constructs the msgpack codec.
func NewMsgpack() Msgpack { return Msgpack{} }

func (Msgpack) Name() string { return "msgpack" }

func (Msgpack) Encode(env message.Envelope) ([]byte, error) {
	w := msgpackEnvelope{
		UUID:         env.Header.UUID,
		MessageClass: env.Header.MessageClass,
		PublishedAt:  env.Header.PublishedAt,
		PublisherPID: env.Header.PublisherPID,
		Version:      env.Header.Version,
		From:         env.Header.From,
		To:           env.Header.To,
		ReplyTo:      env.Header.ReplyTo,
		Serializer:   "msgpack",
		Payload:      env.Payload,
	}

	data, err := msgpack.Marshal(w)
	if err != nil {
		return nil, errors.New("SERIALIZER_ENCODE_FAILED", "msgpack encode failed", err)
	}
	return data, nil
}

func (Msgpack) Decode(data []byte) (message.Envelope, error) {
	var w msgpackEnvelope
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return message.Envelope{}, errors.New("SERIALIZER_DECODE_FAILED", "msgpack decode failed", err)
	}

	h := message.Header{
		UUID:         w.UUID,
		MessageClass: w.MessageClass,
		PublishedAt:  w.PublishedAt,
		PublisherPID: w.PublisherPID,
		Version:      w.Version,
		From:         w.From,
		To:           w.To,
		ReplyTo:      w.ReplyTo,
		Serializer:   "msgpack",
	}

	return message.Envelope{Header: h, Payload: w.Payload}, nil
}

var _ Serializer = Msgpack{}
