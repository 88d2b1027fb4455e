package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/messaging"

	"github.com/segmentio/kafka-go"
)

var _ messaging.DLQPublisher = (*DLQPublisher)(nil)

// DLQPublisher publishes failed messages to a dead letter topic.
type DLQPublisher struct {
	writer *kafka.Writer
}

func NewDLQPublisher(brokers []string, dlqTopic string) *DLQPublisher {
	return &DLQPublisher{writer: newWriter(brokers, dlqTopic)}
}

// PublishToDLQ sends a failed message with the error in its headers.
func (p *DLQPublisher) PublishToDLQ(ctx context.Context, key, value []byte, err error) error {
	msg := kafka.Message{
		Key:   key,
		Value: value,
		Headers: append(correlationHeaders(ctx),
			kafka.Header{Key: "error", Value: []byte(err.Error())},
			kafka.Header{Key: "failed_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	if writeErr := p.writer.WriteMessages(ctx, msg); writeErr != nil {
		slog.ErrorContext(ctx, "Failed to publish to DLQ",
			"topic", p.writer.Topic,
			"key", string(key),
			slog.Any("error", writeErr),
			slog.Any("original_error", err))
		return writeErr
	}

	slog.WarnContext(ctx, "Message sent to DLQ",
		"topic", p.writer.Topic,
		"key", string(key),
		slog.Any("error", err))
	return nil
}

func (p *DLQPublisher) Close() error {
	return p.writer.Close()
}
