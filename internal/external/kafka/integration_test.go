//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/controller/message"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
	"github.com/anupakum/MCP-Payment-idea/internal/external/kafka"
	"github.com/anupakum/MCP-Payment-idea/internal/messaging"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/cases"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/kvstore/memory"
	"github.com/anupakum/MCP-Payment-idea/internal/testinfra"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testinfra.TestSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testinfra.NewTestSuite(ctx, testinfra.SuiteOptions{WithKafka: true})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	suite.Cleanup(ctx)
	os.Exit(code)
}

func TestCaseEventsAndOutcomes(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), time.Minute)
	defer cancel()
	k := suite.Kafka

	// given
	pub := kafka.NewPublisher(k.Brokers, k.CaseEventsTopic)
	defer pub.Close()
	service := dispute.NewService(
		cases.NewRepository(kv.NewQueryBuilder(memory.New())),
		dispute.WithEventSink(kafka.NewCaseEventSink(pub)),
	)

	res, err := service.ProcessDispute(ctx, dispute.Transaction{
		"transaction_id":   "TXN-K1",
		"customer_id":      "CUST-K",
		"transaction_date": time.Now().UTC().Format(time.RFC3339),
		"amount":           "700.00",
	})
	require.NoError(t, err)
	caseID := res.Case.ID

	t.Run("should publish the created case keyed by case id", func(t *testing.T) {
		reader := kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:     k.Brokers,
			Topic:       k.CaseEventsTopic,
			StartOffset: kafkago.FirstOffset,
		})
		defer reader.Close()

		msg, err := reader.ReadMessage(ctx)
		require.NoError(t, err)

		var env messaging.Envelope
		require.NoError(t, json.Unmarshal(msg.Value, &env))
		assert.Equal(t, caseID, string(msg.Key))
		assert.Equal(t, string(dispute.CaseCreated), env.Type)
	})

	t.Run("should apply an acquirer outcome from the topic", func(t *testing.T) {
		outcomes := kafka.NewPublisher(k.Brokers, k.OutcomesTopic)
		defer outcomes.Close()

		env, err := messaging.NewEnvelope(caseID, message.MessageTypeAcquirerOutcome,
			message.AcquirerOutcome{CaseID: caseID, Outcome: "customer_won"})
		require.NoError(t, err)
		require.NoError(t, outcomes.Publish(ctx, env))

		dlq := kafka.NewDLQPublisher(k.Brokers, k.OutcomesDLQ)
		defer dlq.Close()
		handler := messaging.WithDLQ(
			messaging.WithRetry(message.NewAcquirerOutcomeController(service).HandleMessage, messaging.DefaultRetryConfig()),
			dlq,
		)

		runCtx, stop := context.WithCancel(ctx)
		defer stop()
		consumer := kafka.NewConsumer(k.Brokers, k.OutcomesTopic, k.OutcomesGroup)
		go func() { _ = messaging.NewRunner([]messaging.Worker{consumer}, handler).Start(runCtx) }()

		require.Eventually(t, func() bool {
			c, found, err := service.GetCase(ctx, caseID)
			return err == nil && found && c.Status == dispute.StatusResolvedAcquirer
		}, 30*time.Second, 200*time.Millisecond)

		c, _, err := service.GetCase(ctx, caseID)
		require.NoError(t, err)
		assert.Equal(t, dispute.CreditPermanent, c.CreditType)
		assert.Equal(t, dispute.OutcomeCustomerWon, c.AcquirerOutcome)
	})
}
