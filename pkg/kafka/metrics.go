package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values for consumed and published messages.
const (
	resultProcessed = "processed"
	resultFailed    = "failed"
	resultMalformed = "malformed"
	resultPublished = "published"
	resultError     = "error"
)

var (
	consumerFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_messages_fetched_total",
			Help: "Kafka messages fetched from the broker, before handling",
		},
		[]string{"topic", "consumer_group"},
	)

	consumerHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_messages_handled_total",
			Help: "Kafka messages committed by the consumer, by result",
		},
		[]string{"topic", "consumer_group", "result"},
	)

	consumerHandleSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_consumer_handle_duration_seconds",
			Help:    "Time spent in the Kafka handler including retries",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"topic", "consumer_group"},
	)

	producerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_producer_messages_total",
			Help: "Kafka publish attempts, by result",
		},
		[]string{"topic", "result"},
	)

	producerPublishSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_producer_publish_duration_seconds",
			Help:    "Duration of Kafka WriteMessages calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

func recordFetched(topic, group string) {
	consumerFetched.WithLabelValues(topic, group).Inc()
}

func recordHandled(topic, group, result string, took time.Duration) {
	consumerHandled.WithLabelValues(topic, group, result).Inc()
	if result != resultMalformed {
		consumerHandleSeconds.WithLabelValues(topic, group).Observe(took.Seconds())
	}
}

func recordPublish(topic string, took time.Duration, err error) {
	producerPublishSeconds.WithLabelValues(topic).Observe(took.Seconds())
	result := resultPublished
	if err != nil {
		result = resultError
	}
	producerMessages.WithLabelValues(topic, result).Inc()
}
