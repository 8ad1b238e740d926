package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/sarvagya80/SarvTribe/internal/app/stream"
)

// Publisher is the producer-side surface the bridge needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// streamEnvelope is the wire form of a dispatch crossing instances.
type streamEnvelope struct {
	UserID  string          `json:"user_id"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// StreamBridge fans dispatches out through Kafka so a recipient connected
// to another instance still receives the event. Every instance consumes the
// topic under its own group id and forwards envelopes to its local
// registry; registries stay process-local, only envelopes travel.
//
// The Dispatch contract is unchanged from the in-process registry, so the
// messaging service cannot tell which one it holds.
type StreamBridge struct {
	Publisher Publisher
	Topic     string
	Local     stream.Dispatcher
	Logger    *slog.Logger
}

// Dispatch publishes the event keyed by recipient; keying keeps per-user
// ordering across partitions. A broker failure degrades to a local-only
// dispatch rather than losing the event for colocated recipients.
func (b *StreamBridge) Dispatch(userID string, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		if b.Logger != nil {
			b.Logger.Error("stream envelope encode failed", "user_id", userID, "event", event, "error", err)
		}
		return
	}
	envelope, err := json.Marshal(streamEnvelope{UserID: userID, Event: event, Payload: data})
	if err != nil {
		if b.Logger != nil {
			b.Logger.Error("stream envelope encode failed", "user_id", userID, "event", event, "error", err)
		}
		return
	}
	if err := b.Publisher.Publish(context.Background(), b.Topic, userID, envelope, nil); err != nil {
		if b.Logger != nil {
			b.Logger.Warn("stream event publish failed, delivering locally only", "user_id", userID, "event", event, "error", err)
		}
		if b.Local != nil {
			b.Local.Dispatch(userID, event, json.RawMessage(data))
		}
	}
}

// Handle consumes one envelope and replays it into the local registry.
func (b *StreamBridge) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var envelope streamEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		if b.Logger != nil {
			b.Logger.Warn("stream envelope decode failed", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
		// Malformed envelopes are not retryable; mark and move on.
		return nil
	}
	if b.Local != nil {
		b.Local.Dispatch(envelope.UserID, envelope.Event, envelope.Payload)
	}
	return nil
}

var _ stream.Dispatcher = (*StreamBridge)(nil)
var _ MessageHandler = (*StreamBridge)(nil)
