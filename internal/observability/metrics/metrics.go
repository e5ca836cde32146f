package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReportMetrics exposes counters/histograms for the reporting endpoints.
type ReportMetrics struct {
	requestsTotal *prometheus.CounterVec
	cacheTotal    *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func NewReportMetrics(reg prometheus.Registerer) *ReportMetrics {
	m := &ReportMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaxtrack",
			Subsystem: "reports",
			Name:      "requests_total",
			Help:      "Total report requests",
		}, []string{"report", "status"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaxtrack",
			Subsystem: "reports",
			Name:      "cache_total",
			Help:      "Report cache lookups by outcome",
		}, []string{"report", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vaxtrack",
			Subsystem: "reports",
			Name:      "compute_latency_seconds",
			Help:      "Latency of report aggregation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"report"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.cacheTotal, m.latency)
	return m
}

func (m *ReportMetrics) ObserveRequest(report, status string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(report, status).Inc()
}

func (m *ReportMetrics) ObserveCache(report string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheTotal.WithLabelValues(report, outcome).Inc()
}

func (m *ReportMetrics) ObserveLatency(report string, seconds float64) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(report).Observe(seconds)
}
