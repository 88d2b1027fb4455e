package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/anupakum/MCP-Payment-idea/pkg/metrics"
	"github.com/anupakum/MCP-Payment-idea/pkg/retry"
)

const dlqPublishTimeout = 5 * time.Second

func DefaultRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.5,
	}
}

var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// ErrPermanent marks failures that retrying cannot fix, such as a
// malformed payload. Wrap it to skip straight to the DLQ.
var ErrPermanent = errors.New("permanent failure")

// WithRetry wraps a handler with exponential backoff and jitter. Failures
// wrapping ErrPermanent are returned at once.
func WithRetry(handler MessageHandler, cfg retry.Config) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		err := retry.Do(ctx, cfg, isTransient, func(int) error {
			return handler(ctx, key, value)
		})
		if err == nil || errors.Is(err, ErrPermanent) || ctx.Err() != nil {
			return err
		}
		return errors.Join(ErrMaxRetriesExceeded, err)
	}
}

func isTransient(err error) bool {
	return !errors.Is(err, ErrPermanent)
}

type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, key, value []byte, err error) error
}

// WithDLQ sends messages that still fail to the dead letter queue and
// reports success so the offset is committed.
func WithDLQ(handler MessageHandler, dlq DLQPublisher) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		err := handler(ctx, key, value)
		if err == nil {
			return nil
		}
		// The consumer context may already be cancelled during shutdown.
		dlqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dlqPublishTimeout)
		defer cancel()
		// Publish errors are logged by the implementation.
		_ = dlq.PublishToDLQ(dlqCtx, key, value, err)
		return nil
	}
}

// Status labels reported by WithMetrics.
const (
	StatusSuccess   = "success"
	StatusPermanent = "permanent"
	StatusFailed    = "failed"
)

// WithMetrics records processing time and outcome per topic and group. It
// sits inside WithDLQ so failures are still visible.
func WithMetrics(topic, group string, handler MessageHandler) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		start := time.Now()
		err := handler(ctx, key, value)

		status := StatusSuccess
		switch {
		case errors.Is(err, ErrPermanent):
			status = StatusPermanent
		case err != nil:
			status = StatusFailed
		}
		metrics.KafkaProcessingDuration.WithLabelValues(topic, group, status).Observe(time.Since(start).Seconds())
		metrics.KafkaMessagesProcessed.WithLabelValues(topic, group, status).Inc()
		return err
	}
}
