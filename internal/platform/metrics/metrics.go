// Package metrics exposes the Prometheus collectors of the transfer ledger.
// Every recorder is nil-safe so components can run without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "transfer_ledger"

// Transfer outcomes
const (
	OutcomeCreated  = "created"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// TransferMetrics records transfer engine outcomes
type TransferMetrics struct {
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
	batch    prometheus.Histogram
}

// NewTransferMetrics registers the transfer metrics on reg. A nil reg yields a no-op recorder.
func NewTransferMetrics(reg prometheus.Registerer) *TransferMetrics {
	if reg == nil {
		return &TransferMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transfers_total",
		Help:      "Transfers handled by the engine, by kind and outcome.",
	}, []string{"kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transfer_duration_seconds",
		Help:      "Time spent executing a transfer, including lock waits.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind", "outcome"})
	batch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transfer_batch_size",
		Help:      "Number of transfers submitted per batch request.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100},
	})
	reg.MustRegister(outcomes, duration, batch)
	return &TransferMetrics{
		outcomes: outcomes,
		duration: duration,
		batch:    batch,
	}
}

// Observe records one transfer outcome and its duration
func (m *TransferMetrics) Observe(kind, outcome string, elapsed time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	kind = normalizeLabel(kind)
	m.outcomes.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind, outcome).Observe(elapsed.Seconds())
}

// ObserveBatch records the size of a batch request
func (m *TransferMetrics) ObserveBatch(size int) {
	if m == nil || m.batch == nil {
		return
	}
	m.batch.Observe(float64(size))
}

// HTTPMetrics records request counts and latencies of the API gateway
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on reg. A nil reg yields a no-op recorder.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{
		requests: requests,
		duration: duration,
	}
}

// ObserveRequest records a served request
func (m *HTTPMetrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, status).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// OutboxMetrics records relay progress of the ledger projector
type OutboxMetrics struct {
	published prometheus.Counter
	failed    prometheus.Counter
	projected *prometheus.CounterVec
}

// NewOutboxMetrics registers the projector metrics on reg. A nil reg yields a no-op recorder.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_published_total",
		Help:      "Outbox messages published to Kafka.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_publish_failures_total",
		Help:      "Failed attempts to publish outbox messages.",
	})
	projected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_events_total",
		Help:      "Transfer events consumed into the journal, by result.",
	}, []string{"result"})
	reg.MustRegister(published, failed, projected)
	return &OutboxMetrics{
		published: published,
		failed:    failed,
		projected: projected,
	}
}

// IncPublished counts a published outbox message
func (m *OutboxMetrics) IncPublished() {
	if m == nil || m.published == nil {
		return
	}
	m.published.Inc()
}

// IncPublishFailure counts a failed publish attempt
func (m *OutboxMetrics) IncPublishFailure() {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.Inc()
}

// IncProjected counts a consumed event by result ("projected", "dead_lettered" or "failed")
func (m *OutboxMetrics) IncProjected(result string) {
	if m == nil || m.projected == nil {
		return
	}
	m.projected.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
