// Package metrics exposes Prometheus instruments for the notification pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "listingnet"

// Delivery outcome labels.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Metrics groups the pipeline's collectors.
type Metrics struct {
	notifications   *prometheus.CounterVec
	fanoutMatches   prometheus.Counter
	fanoutFailures  prometheus.Counter
	activeTransport *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by kind, transport and outcome.",
		}, []string{"kind", "transport", "status"}),
		fanoutMatches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_matches_total",
			Help:      "Buyer saved searches matched by published listings.",
		}),
		fanoutFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_failures_total",
			Help:      "Listing match deliveries that failed during fan-out.",
		}),
		activeTransport: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_transport",
			Help:      "1 for the mail transport currently selected, 0 for the others.",
		}, []string{"kind"}),
	}
}

// ObserveDelivery counts one delivery outcome.
func (m *Metrics) ObserveDelivery(kind, transport, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, transport, status).Inc()
}

// ObserveFanout records the outcome of one publish event.
func (m *Metrics) ObserveFanout(matched, failed int) {
	if m == nil {
		return
	}
	m.fanoutMatches.Add(float64(matched))
	m.fanoutFailures.Add(float64(failed))
}

// SetActiveTransport marks kind as the selected transport among kinds.
func (m *Metrics) SetActiveTransport(kind string, kinds ...string) {
	if m == nil {
		return
	}
	for _, k := range kinds {
		m.activeTransport.WithLabelValues(k).Set(0)
	}
	m.activeTransport.WithLabelValues(kind).Set(1)
}
