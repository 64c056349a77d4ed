// file: internal/metrics/metrics.go

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides centralized metrics collection for token-keeper.
type Metrics struct {
	RefreshSuccessTotal   *prometheus.CounterVec
	RefreshFailuresTotal  *prometheus.CounterVec
	FetchDuration         *prometheus.HistogramVec
	FetchRetriesTotal     *prometheus.CounterVec
	HeaderReadsTotal      *prometheus.CounterVec
	UnavailableReadsTotal *prometheus.CounterVec
	SinkFailuresTotal     *prometheus.CounterVec
}

// NewMetrics creates a new metrics instance and registers the collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RefreshSuccessTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenkeeper_refresh_success_total",
				Help: "Total number of successful token fetches by credential.",
			},
			[]string{"credential"},
		),
		RefreshFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenkeeper_refresh_failures_total",
				Help: "Total number of failed token fetches by credential.",
			},
			[]string{"credential"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenkeeper_fetch_duration_seconds",
				Help:    "Duration of token exchange requests by credential.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"credential"},
		),
		FetchRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenkeeper_fetch_retries_total",
				Help: "Total number of token exchange retry attempts by credential.",
			},
			[]string{"credential"},
		),
		HeaderReadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenkeeper_header_reads_total",
				Help: "Total number of authorization header reads by credential.",
			},
			[]string{"credential"},
		),
		UnavailableReadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenkeeper_unavailable_reads_total",
				Help: "Total number of header reads that found a failed cache state by credential.",
			},
			[]string{"credential"},
		),
		SinkFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenkeeper_sink_failures_total",
				Help: "Total number of failures to publish a token to the sink by credential.",
			},
			[]string{"credential"},
		),
	}

	collectors := []prometheus.Collector{
		m.RefreshSuccessTotal,
		m.RefreshFailuresTotal,
		m.FetchDuration,
		m.FetchRetriesTotal,
		m.HeaderReadsTotal,
		m.UnavailableReadsTotal,
		m.SinkFailuresTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// IncRefreshSuccess increments the counter for successful token fetches.
func (m *Metrics) IncRefreshSuccess(credential string) {
	m.RefreshSuccessTotal.WithLabelValues(credential).Inc()
}

// IncRefreshFailure increments the counter for failed token fetches.
func (m *Metrics) IncRefreshFailure(credential string) {
	m.RefreshFailuresTotal.WithLabelValues(credential).Inc()
}

// ObserveFetchDuration records the duration of a token exchange.
func (m *Metrics) ObserveFetchDuration(credential string, seconds float64) {
	m.FetchDuration.WithLabelValues(credential).Observe(seconds)
}

// IncFetchRetry increments the counter for exchange retry attempts.
func (m *Metrics) IncFetchRetry(credential string) {
	m.FetchRetriesTotal.WithLabelValues(credential).Inc()
}

// IncHeaderRead increments the counter for header reads.
func (m *Metrics) IncHeaderRead(credential string) {
	m.HeaderReadsTotal.WithLabelValues(credential).Inc()
}

// IncUnavailableRead increments the counter for reads that hit a failed state.
func (m *Metrics) IncUnavailableRead(credential string) {
	m.UnavailableReadsTotal.WithLabelValues(credential).Inc()
}

// IncSinkFailure increments the counter for sink publish failures.
func (m *Metrics) IncSinkFailure(credential string) {
	m.SinkFailuresTotal.WithLabelValues(credential).Inc()
}
