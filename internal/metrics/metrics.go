// Package metrics exposes Prometheus counters for social sign-in.
package metrics

import (
	"net/http"
	"time"

	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the sign-in metrics. A nil *Metrics records nothing.
type Metrics struct {
	SignInsStarted   *prometheus.CounterVec
	SignInsCompleted *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec
}

// New creates the sign-in metrics and registers them on reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SignInsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pawlink_signins_started_total",
			Help: "Sign-in attempts redirected to a provider",
		}, []string{"provider"}),
		SignInsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pawlink_signins_completed_total",
			Help: "Finished sign-in attempts by outcome reason (ok on success)",
		}, []string{"provider", "reason"}),
		ExchangeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pawlink_provider_exchange_duration_seconds",
			Help:    "Duration of token exchange plus profile fetch against the provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
	}
}

// RecordStart counts a redirect to provider.
func (m *Metrics) RecordStart(provider string) {
	if m == nil {
		return
	}
	m.SignInsStarted.WithLabelValues(provider).Inc()
}

// RecordOutcome counts a finished attempt, labelled with oauth.Reason(err).
func (m *Metrics) RecordOutcome(provider string, err error) {
	if m == nil {
		return
	}
	m.SignInsCompleted.WithLabelValues(provider, oauth.Reason(err)).Inc()
}

// ObserveExchange records time spent talking to provider since start.
func (m *Metrics) ObserveExchange(provider string, start time.Time) {
	if m == nil {
		return
	}
	m.ExchangeDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
