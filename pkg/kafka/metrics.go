package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events handed to the broker, by topic, event type and result.",
		},
		[]string{"topic", "event_type", "result"},
	)

	eventPublishSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "events",
			Name:      "publish_duration_seconds",
			Help:      "Time spent writing one event to the broker.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"topic"},
	)

	eventPayloadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "events",
			Name:      "payload_bytes",
			Help:      "Encoded size of published event envelopes.",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 8),
		},
		[]string{"topic"},
	)
)

func observePublish(topic, eventType string, size int, seconds float64, err error) {
	eventPublishSeconds.WithLabelValues(topic).Observe(seconds)
	if err != nil {
		eventsPublished.WithLabelValues(topic, eventType, resultError).Inc()
		return
	}
	eventsPublished.WithLabelValues(topic, eventType, resultOK).Inc()
	eventPayloadBytes.WithLabelValues(topic).Observe(float64(size))
}
