package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/messaging"
	"github.com/anupakum/MCP-Payment-idea/pkg/correlation"
	"github.com/anupakum/MCP-Payment-idea/pkg/retry"

	"github.com/segmentio/kafka-go"
)

const commitTimeout = 5 * time.Second

var _ messaging.Worker = (*Consumer)(nil)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads acquirer outcome messages for one consumer group and
// commits each offset only after its handler succeeded.
type Consumer struct {
	reader     messageReader
	topic      string
	group      string
	fetchRetry retry.Config
}

type ConsumerOption func(*Consumer)

// WithFetchRetry sets how often a failing fetch is retried before Start
// gives up.
func WithFetchRetry(cfg retry.Config) ConsumerOption {
	return func(c *Consumer) { c.fetchRetry = cfg }
}

func NewConsumer(brokers []string, topic, groupID string, opts ...ConsumerOption) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:          brokers,
		Topic:            topic,
		GroupID:          groupID,
		MinBytes:         1,
		MaxBytes:         10e6,
		StartOffset:      kafka.FirstOffset,
		MaxWait:          500 * time.Millisecond,
		RebalanceTimeout: 5 * time.Second,
	})
	return newConsumer(reader, topic, groupID, opts...)
}

func newConsumer(reader messageReader, topic, groupID string, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader: reader,
		topic:  topic,
		group:  groupID,
		fetchRetry: retry.Config{
			MaxAttempts: 5,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			Jitter:      0.2,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs until ctx is cancelled. A message whose handler fails stays
// uncommitted and is delivered again after a restart or rebalance.
func (c *Consumer) Start(ctx context.Context, handler messaging.MessageHandler) error {
	slog.Info("Acquirer outcome consumer started", "topic", c.topic, "group_id", c.group)

	for {
		msg, err := c.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Acquirer outcome consumer stopped", "topic", c.topic, "group_id", c.group)
				return nil
			}
			slog.Error("Giving up fetching messages", "topic", c.topic, slog.Any("error", err))
			return err
		}
		c.process(ctx, msg, handler)
	}
}

func (c *Consumer) fetch(ctx context.Context) (kafka.Message, error) {
	var msg kafka.Message
	err := retry.Do(ctx, c.fetchRetry, func(err error) bool {
		// A closed reader reports io.EOF.
		return !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF)
	}, func(attempt int) error {
		var fetchErr error
		msg, fetchErr = c.reader.FetchMessage(ctx)
		if fetchErr != nil && ctx.Err() == nil {
			slog.Warn("Fetch failed", "topic", c.topic, "attempt", attempt+1, slog.Any("error", fetchErr))
		}
		return fetchErr
	})
	return msg, err
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message, handler messaging.MessageHandler) {
	msgCtx := withCorrelationID(ctx, msg.Headers)
	slog.DebugContext(msgCtx, "Message received", messageAttr(msg))

	if err := handler(msgCtx, msg.Key, msg.Value); err != nil {
		slog.ErrorContext(msgCtx, "Message left uncommitted", messageAttr(msg), slog.Any("error", err))
		return
	}

	// The message was handled, so commit it even while shutting down.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		slog.ErrorContext(msgCtx, "Commit failed", messageAttr(msg), slog.Any("error", err))
	}
}

func (c *Consumer) Close() error {
	slog.Info("Closing acquirer outcome consumer", "topic", c.topic, "group_id", c.group)
	return c.reader.Close()
}

func messageAttr(msg kafka.Message) slog.Attr {
	return slog.Group("message",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key))
}

func withCorrelationID(ctx context.Context, headers []kafka.Header) context.Context {
	for _, h := range headers {
		if h.Key == correlation.HeaderName {
			return correlation.WithID(ctx, string(h.Value))
		}
	}
	return correlation.WithID(ctx, correlation.NewID())
}

func correlationHeaders(ctx context.Context) []kafka.Header {
	if id := correlation.FromContext(ctx); id != "" {
		return []kafka.Header{{Key: correlation.HeaderName, Value: []byte(id)}}
	}
	return nil
}
