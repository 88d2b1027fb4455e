package metrics

import "github.com/prometheus/client_golang/prometheus"

var kafkaConsumerLabels = []string{"topic", "consumer_group", "status"}

var (
	KafkaProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "message_processing_duration_seconds",
			Help:      "Time spent handling one consumed message, retries included",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		kafkaConsumerLabels,
	)

	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "messages_processed_total",
			Help:      "Consumed messages by handling status",
		},
		kafkaConsumerLabels,
	)

	KafkaMessagesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Case events and dead letters written to Kafka",
		},
		[]string{"topic", "status"},
	)
)

func init() {
	Registry.MustRegister(KafkaProcessingDuration, KafkaMessagesProcessed, KafkaMessagesPublished)
}
