package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/anupakum/MCP-Payment-idea/internal/messaging"
	"github.com/anupakum/MCP-Payment-idea/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

var _ messaging.Publisher = (*Publisher)(nil)

// Publisher implements messaging.Publisher using Kafka.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{writer: newWriter(brokers, topic)}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// Publish writes env keyed by env.Key, so events of one case keep their order.
func (p *Publisher) Publish(ctx context.Context, env messaging.Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:     []byte(env.Key),
		Value:   value,
		Headers: correlationHeaders(ctx),
	}

	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.KafkaMessagesPublished.WithLabelValues(p.writer.Topic, "error").Inc()
		slog.ErrorContext(ctx, "Failed to publish message",
			"topic", p.writer.Topic,
			"key", env.Key,
			slog.Any("error", err))
		return err
	}

	metrics.KafkaMessagesPublished.WithLabelValues(p.writer.Topic, "success").Inc()
	slog.DebugContext(ctx, "Message published",
		"topic", p.writer.Topic,
		"key", env.Key,
		"event_id", env.EventID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
