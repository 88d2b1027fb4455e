package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Store backend: "memory", "postgres" or "dynamodb"
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`

	PgURL          string        `env:"PG_URL"`
	PgPoolMax      int           `env:"PG_POOL_MAX" envDefault:"10"`
	PgConnAttempts int           `env:"PG_CONN_ATTEMPTS" envDefault:"10"`
	PgConnTimeout  time.Duration `env:"PG_CONN_TIMEOUT" envDefault:"1s"`

	AWSRegion        string `env:"AWS_REGION" envDefault:"us-east-1"`
	DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT"`

	CardTransactionsTable string `env:"CARD_TRANSACTIONS_TABLE" envDefault:"card_transactions"`
	CasesTable            string `env:"CASES_TABLE" envDefault:"cases"`

	StoreRetryAttempts  int           `env:"STORE_RETRY_ATTEMPTS" envDefault:"3"`
	StoreRetryBaseDelay time.Duration `env:"STORE_RETRY_BASE_DELAY" envDefault:"500ms"`
	StoreRetryMaxDelay  time.Duration `env:"STORE_RETRY_MAX_DELAY" envDefault:"5s"`

	CaseGuardLease time.Duration `env:"CASE_GUARD_LEASE" envDefault:"30s"`

	// Kafka is optional; without brokers case events are not published and
	// acquirer outcomes are accepted over HTTP only.
	KafkaBrokers               []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaCaseEventsTopic       string   `env:"KAFKA_CASE_EVENTS_TOPIC" envDefault:"disputes.case-events"`
	KafkaAcquirerOutcomesTopic string   `env:"KAFKA_ACQUIRER_OUTCOMES_TOPIC" envDefault:"acquirer.outcomes"`
	KafkaAcquirerConsumerGroup string   `env:"KAFKA_ACQUIRER_CONSUMER_GROUP" envDefault:"dispute-service-acquirer"`
	KafkaAcquirerDLQTopic      string   `env:"KAFKA_ACQUIRER_DLQ_TOPIC" envDefault:"acquirer.outcomes.dlq"`

	OpensearchUrls       []string `env:"OPENSEARCH_URLS" envSeparator:","`
	OpensearchIndexCases string   `env:"OPENSEARCH_INDEX_CASES" envDefault:"dispute-cases"`

	ActivityBufferSize int `env:"ACTIVITY_BUFFER_SIZE" envDefault:"200"`

	CapabilityServerURL string        `env:"CAPABILITY_SERVER_URL" envDefault:"http://localhost:3000"`
	CapabilityTimeout   time.Duration `env:"CAPABILITY_CLIENT_TIMEOUT" envDefault:"30s"`
}

func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	return c, nil
}
