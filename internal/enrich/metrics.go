package enrich

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the alert pipeline.
type Metrics struct {
	AdmitsTotal    prometheus.Counter
	PipelinesTotal *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
}

// NewMetrics registers and returns pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AdmitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_alerts_admitted_total",
			Help: "Total alerts durably recorded and scheduled for processing.",
		}),
		PipelinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_pipelines_total",
			Help: "Total pipeline runs by terminal outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beacon_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s .. ~200s
		}, []string{"stage"}),
	}

	reg.MustRegister(
		m.AdmitsTotal,
		m.PipelinesTotal,
		m.StageDuration,
	)

	return m
}
