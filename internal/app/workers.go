package app

import (
	"context"
	"log/slog"

	"github.com/anupakum/MCP-Payment-idea/internal/controller/message"
	"github.com/anupakum/MCP-Payment-idea/internal/external/kafka"
	"github.com/anupakum/MCP-Payment-idea/internal/messaging"
)

// runAcquirerOutcomes consumes acquirer outcome messages until ctx is
// cancelled. Failed messages are retried and then parked on the DLQ topic.
func (a *App) runAcquirerOutcomes(ctx context.Context) error {
	cfg := a.Config

	dlq := kafka.NewDLQPublisher(cfg.KafkaBrokers, cfg.KafkaAcquirerDLQTopic)
	defer dlq.Close()

	controller := message.NewAcquirerOutcomeController(a.Service)
	handler := messaging.WithDLQ(
		messaging.WithMetrics(
			cfg.KafkaAcquirerOutcomesTopic,
			cfg.KafkaAcquirerConsumerGroup,
			messaging.WithRetry(controller.HandleMessage, messaging.DefaultRetryConfig()),
		),
		dlq,
	)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaAcquirerOutcomesTopic, cfg.KafkaAcquirerConsumerGroup)
	runner := messaging.NewRunner([]messaging.Worker{consumer}, handler)

	slog.Info("Starting acquirer outcome consumer",
		"topic", cfg.KafkaAcquirerOutcomesTopic,
		"group", cfg.KafkaAcquirerConsumerGroup)
	if err := runner.Start(ctx); err != nil && ctx.Err() == nil {
		slog.Error("Acquirer outcome runner failed", slog.Any("error", err))
		return err
	}
	return nil
}
