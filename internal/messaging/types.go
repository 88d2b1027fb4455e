package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the Kafka wire format shared by case events and acquirer
// outcomes. Key is also used as the Kafka message key.
type Envelope struct {
	EventID   string          `json:"event_id"`
	Key       string          `json:"key"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewEnvelope(key, msgType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}

	return Envelope{
		EventID:   uuid.NewString(),
		Key:       key,
		Type:      msgType,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// DecodeEnvelope parses a raw Kafka value. A missing type or payload is an
// error.
func DecodeEnvelope(value []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope %q has no type", env.EventID)
	}
	if len(env.Payload) == 0 {
		return Envelope{}, fmt.Errorf("envelope %q has no payload", env.EventID)
	}
	return env, nil
}

// DecodePayload unmarshals the payload into v. Numbers decode as
// json.Number so amounts keep their precision.
func (e Envelope) DecodePayload(v any) error {
	dec := json.NewDecoder(bytes.NewReader(e.Payload))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
	Close() error
}

type MessageHandler func(ctx context.Context, key, value []byte) error

// Worker consumes one topic and hands each message to a MessageHandler.
type Worker interface {
	Start(ctx context.Context, handler MessageHandler) error
	Close() error
}
