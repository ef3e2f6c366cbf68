package serializer

import (
	"encoding/json"

	"github.com/madbomber/smart-message-sub002/pkg/errors"
	"github.com/madbomber/smart-message-sub002/pkg/message"
)

// wireEnvelope is the on-the-wire shape: header fields flattened
// alongside a nested payload object, matching the header-keys-are-stable
// contract (§6 of the external interfaces).
type wireEnvelope struct {
	UUID         string                 `json:"uuid"`
	MessageClass string                 `json:"message_class"`
	PublishedAt  string                 `json:"published_at,omitempty"`
	PublisherPID string                 `json:"publisher_pid"`
	Version      int                    `json:"version"`
	From         string                 `json:"from"`
	To           string                 `json:"to,omitempty"`
	ReplyTo      string                 `json:"reply_to,omitempty"`
	Serializer   string                 `json:"serializer"`
	Payload      map[string]interface{} `json:"payload"`
}

// JSON is the default, always-available codec: encoding/json over a flat
// header + nested payload document. Registered under the name "json".
type JSON struct{}

// NewJSON constructs the JSON codec.
func NewJSON() JSON { return JSON{} }

func (JSON) Name() string { return "json" }

func (JSON) Encode(env message.Envelope) ([]byte, error) {
	w := wireEnvelope{
		UUID:         env.Header.UUID,
		MessageClass: env.Header.MessageClass,
		PublisherPID: env.Header.PublisherPID,
		Version:      env.Header.Version,
		From:         env.Header.From,
		To:           env.Header.To,
		ReplyTo:      env.Header.ReplyTo,
		Serializer:   "json",
		Payload:      env.Payload,
	}
	if env.Header.Published() {
		w.PublishedAt = env.Header.PublishedAt.Format(timeLayout)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, errors.New("SERIALIZER_ENCODE_FAILED", "json encode failed", err)
	}
	return data, nil
}

func (JSON) Decode(data []byte) (message.Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return message.Envelope{}, errors.New("SERIALIZER_DECODE_FAILED", "json decode failed", err)
	}

	h := message.Header{
		UUID:         w.UUID,
		MessageClass: w.MessageClass,
		PublisherPID: w.PublisherPID,
		Version:      w.Version,
		From:         w.From,
		To:           w.To,
		ReplyTo:      w.ReplyTo,
		Serializer:   "json",
	}
	if w.PublishedAt != "" {
		if t, err := parseTime(w.PublishedAt); err == nil {
			h.PublishedAt = t
		}
	}

	return message.Envelope{Header: h, Payload: w.Payload}, nil
}

var _ Serializer = JSON{}
