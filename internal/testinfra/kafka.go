//go:build integration

package testinfra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

// KafkaContainer is a single-broker cluster with the dispute topics created
// under names unique to this run.
type KafkaContainer struct {
	Container       *kafka.KafkaContainer
	Brokers         []string
	CaseEventsTopic string
	OutcomesTopic   string
	OutcomesDLQ     string
	OutcomesGroup   string
}

func NewKafka(ctx context.Context) (*KafkaContainer, error) {
	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("disputes-test"),
	)
	if err != nil {
		return nil, fmt.Errorf("start kafka: %w", err)
	}

	kc := &KafkaContainer{Container: container}
	if kc.Brokers, err = container.Brokers(ctx); err != nil {
		kc.Cleanup(ctx)
		return nil, fmt.Errorf("kafka brokers: %w", err)
	}

	run := uuid.NewString()[:8]
	kc.CaseEventsTopic = "case-events-" + run
	kc.OutcomesTopic = "acquirer-outcomes-" + run
	kc.OutcomesDLQ = "acquirer-outcomes-dlq-" + run
	kc.OutcomesGroup = "dispute-service-" + run

	err = createTopics(ctx, kc.Brokers[0], kc.CaseEventsTopic, kc.OutcomesTopic, kc.OutcomesDLQ)
	if err != nil {
		kc.Cleanup(ctx)
		return nil, err
	}
	return kc, nil
}

// createTopics retries while the broker starts answering admin requests,
// which happens a little after it accepts connections.
func createTopics(ctx context.Context, broker string, topics ...string) error {
	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, t := range topics {
		configs = append(configs, kafkago.TopicConfig{Topic: t, NumPartitions: 1, ReplicationFactor: 1})
	}

	var lastErr error
	for range 40 {
		if lastErr = createOnController(ctx, broker, configs); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), lastErr)
		case <-time.After(250 * time.Millisecond):
		}
	}
	return fmt.Errorf("create topics %v: %w", topics, lastErr)
}

func createOnController(ctx context.Context, broker string, configs []kafkago.TopicConfig) error {
	conn, err := kafkago.DialContext(ctx, "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	cc, err := kafkago.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer cc.Close()

	if err := cc.CreateTopics(configs...); err != nil && !errors.Is(err, kafkago.TopicAlreadyExists) {
		return err
	}
	return nil
}

func (c *KafkaContainer) Cleanup(ctx context.Context) {
	if c.Container != nil {
		_ = c.Container.Terminate(ctx)
	}
}
