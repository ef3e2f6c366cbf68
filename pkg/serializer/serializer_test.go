package serializer

import (
	"testing"
	"time"

	"github.com/madbomber/smart-message-sub002/pkg/message"
	"github.com/madbomber/smart-message-sub002/pkg/test"
)

type SerializerSuite struct {
	test.Suite
}

func TestSerializerSuite(t *testing.T) {
	test.Run(t, new(SerializerSuite))
}

func sampleEnvelope() message.Envelope {
	return message.Envelope{
		Header: message.Header{
			UUID:         "11111111-1111-1111-1111-111111111111",
			MessageClass: "OrderCreated",
			PublishedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			PublisherPID: "pid-1",
			Version:      1,
			From:         "order_service",
			To:           "billing",
			Serializer:   "json",
		},
		Payload: map[string]interface{}{"order_id": "o-1"},
	}
}

func (s *SerializerSuite) TestJSONRoundTrip() {
	codec := NewJSON()
	env := sampleEnvelope()

	data, err := codec.Encode(env)
	s.NoError(err)

	decoded, err := codec.Decode(data)
	s.NoError(err)
	s.Equal(env.Header.UUID, decoded.Header.UUID)
	s.Equal(env.Header.From, decoded.Header.From)
	s.True(env.Header.PublishedAt.Equal(decoded.Header.PublishedAt))
	s.Equal("o-1", decoded.Payload["order_id"])
}

func (s *SerializerSuite) TestMsgpackRoundTrip() {
	codec := NewMsgpack()
	env := sampleEnvelope()
	env.Header.Serializer = "msgpack"

	data, err := codec.Encode(env)
	s.NoError(err)

	decoded, err := codec.Decode(data)
	s.NoError(err)
	s.Equal(env.Header.UUID, decoded.Header.UUID)
	s.True(env.Header.PublishedAt.Equal(decoded.Header.PublishedAt))
	s.Equal("o-1", decoded.Payload["order_id"])
}

func (s *SerializerSuite) TestRegistryLookup() {
	r := NewRegistry()
	r.Register(NewJSON())
	r.Register(NewMsgpack())

	got, err := r.Get("json")
	s.NoError(err)
	s.Equal("json", got.Name())

	_, err = r.Get("missing")
	s.Error(err)
}
