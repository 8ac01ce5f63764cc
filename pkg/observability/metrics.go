package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the chat pipeline instruments
type Metrics struct {
	SendsTotal         *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
}

// NewMetrics registers and returns the chat metrics on the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_sends_total",
				Help: "Total chat send operations, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chat_generation_duration_seconds",
				Help:    "Latency of remote generation calls.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.SendsTotal, m.GenerationDuration)
	return m
}

// ObserveGeneration records a completed generation call
func (m *Metrics) ObserveGeneration(start time.Time, err error) {
	m.GenerationDuration.Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SendsTotal.WithLabelValues(outcome).Inc()
}
