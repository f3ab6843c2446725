package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks confirmed sales and stock rejections.
type CheckoutMetrics struct {
	confirmed *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	duration  prometheus.Histogram
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	confirmed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sales_confirmed_total",
		Help: "Sales written to the ledger, by sale type and payment method.",
	}, []string{"type", "method"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_checkout_rejected_total",
		Help: "Checkouts rejected before commit, by error code.",
	}, []string{"code"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_checkout_duration_seconds",
		Help:    "End to end checkout latency.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(confirmed, rejected, duration)
	return &CheckoutMetrics{confirmed: confirmed, rejected: rejected, duration: duration}
}

func (m *CheckoutMetrics) IncConfirmed(saleType, method string) {
	if m == nil || m.confirmed == nil {
		return
	}
	m.confirmed.WithLabelValues(normalizeLabel(saleType), normalizeLabel(method)).Inc()
}

func (m *CheckoutMetrics) IncRejected(code string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *CheckoutMetrics) ObserveDuration(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

// PublisherMetrics counts outbox deliveries.
type PublisherMetrics struct {
	published    *prometheus.CounterVec
	failed       *prometheus.CounterVec
	deadLettered *prometheus.CounterVec
}

func NewPublisherMetrics(reg prometheus.Registerer) *PublisherMetrics {
	if reg == nil {
		return &PublisherMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_outbox_published_total",
		Help: "Outbox events delivered to pub/sub.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_outbox_failed_total",
		Help: "Outbox delivery attempts that failed and will be retried.",
	}, []string{"event_type"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_outbox_dead_lettered_total",
		Help: "Outbox events moved to the dead letter table.",
	}, []string{"event_type", "reason"})
	reg.MustRegister(published, failed, deadLettered)
	return &PublisherMetrics{published: published, failed: failed, deadLettered: deadLettered}
}

func (m *PublisherMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *PublisherMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *PublisherMetrics) IncDeadLettered(eventType, reason string) {
	if m == nil || m.deadLettered == nil {
		return
	}
	m.deadLettered.WithLabelValues(normalizeLabel(eventType), normalizeLabel(reason)).Inc()
}
