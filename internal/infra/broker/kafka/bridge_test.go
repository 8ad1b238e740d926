package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarvagya80/SarvTribe/internal/infra/broker/kafka"
)

type published struct {
	topic   string
	key     string
	payload []byte
}

type fakePublisher struct {
	messages []published
	fail     bool
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, payload []byte, _ map[string]string) error {
	if p.fail {
		return errors.New("brokers unreachable")
	}
	p.messages = append(p.messages, published{topic: topic, key: key, payload: payload})
	return nil
}

type dispatched struct {
	userID  string
	event   string
	payload any
}

type fakeDispatcher struct {
	calls []dispatched
}

func (d *fakeDispatcher) Dispatch(userID, event string, payload any) {
	d.calls = append(d.calls, dispatched{userID: userID, event: event, payload: payload})
}

func TestBridgeDispatchPublishesEnvelope(t *testing.T) {
	publisher := &fakePublisher{}
	local := &fakeDispatcher{}
	bridge := &kafka.StreamBridge{Publisher: publisher, Topic: "stream-events", Local: local}

	bridge.Dispatch("bob", "newMessage", map[string]string{"text": "hi"})

	require.Len(t, publisher.messages, 1)
	msg := publisher.messages[0]
	assert.Equal(t, "stream-events", msg.topic)
	// Keying by recipient keeps per-user ordering within a partition.
	assert.Equal(t, "bob", msg.key)
	assert.JSONEq(t, `{"user_id":"bob","event":"newMessage","payload":{"text":"hi"}}`, string(msg.payload))

	// Successful publish means delivery happens via the consumer, not here.
	assert.Empty(t, local.calls)
}

func TestBridgeDispatchFallsBackToLocal(t *testing.T) {
	local := &fakeDispatcher{}
	bridge := &kafka.StreamBridge{Publisher: &fakePublisher{fail: true}, Topic: "stream-events", Local: local}

	bridge.Dispatch("bob", "newMessage", map[string]string{"text": "hi"})

	require.Len(t, local.calls, 1)
	assert.Equal(t, "bob", local.calls[0].userID)
	assert.Equal(t, "newMessage", local.calls[0].event)
	raw, ok := local.calls[0].payload.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"text":"hi"}`, string(raw))
}

func TestBridgeHandleReplaysEnvelope(t *testing.T) {
	local := &fakeDispatcher{}
	bridge := &kafka.StreamBridge{Local: local}

	value := []byte(`{"user_id":"bob","event":"newConnectionRequest","payload":{"message":"hi"}}`)
	err := bridge.Handle(context.Background(), &sarama.ConsumerMessage{Topic: "stream-events", Value: value})
	require.NoError(t, err)

	require.Len(t, local.calls, 1)
	assert.Equal(t, "bob", local.calls[0].userID)
	assert.Equal(t, "newConnectionRequest", local.calls[0].event)
}

func TestBridgeHandleSkipsMalformedEnvelope(t *testing.T) {
	local := &fakeDispatcher{}
	bridge := &kafka.StreamBridge{Local: local}

	err := bridge.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("not json")})
	assert.NoError(t, err)
	assert.Empty(t, local.calls)
}
