package health

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaChecker dials the brokers and, when topics are given, checks that
// their partition metadata can be read.
type KafkaChecker struct {
	brokers []string
	topics  []string
}

func NewKafkaChecker(brokers []string, topics ...string) *KafkaChecker {
	return &KafkaChecker{brokers: brokers, topics: topics}
}

func (c *KafkaChecker) Name() string {
	return "kafka"
}

func (c *KafkaChecker) Check(ctx context.Context) Result {
	var lastErr error
	for _, broker := range c.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		defer conn.Close()

		if len(c.topics) > 0 {
			if _, err := conn.ReadPartitions(c.topics...); err != nil {
				return Result{Status: StatusDown, Message: fmt.Sprintf("read partitions: %v", err)}
			}
		}
		return Result{Status: StatusUp}
	}

	msg := "no brokers configured"
	if lastErr != nil {
		msg = fmt.Sprintf("all brokers unreachable: %v", lastErr)
	}
	return Result{Status: StatusDown, Message: msg}
}
