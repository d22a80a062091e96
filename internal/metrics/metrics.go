package metrics

import "github.com/prometheus/client_golang/prometheus"

// DashboardMetrics exposes counters/histograms for dashboard operations.
type DashboardMetrics struct {
	operationsTotal *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	cached          prometheus.Gauge
}

// NewDashboardMetrics registers the dashboard collectors with reg, or with
// the default registerer when reg is nil.
func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	m := &DashboardMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "dashboard",
			Name:      "operations_total",
			Help:      "Dashboard operations by outcome",
		}, []string{"operation", "outcome"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "dashboard",
			Name:      "store_latency_seconds",
			Help:      "Latency of appointment store calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		cached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "dashboard",
			Name:      "cached_appointments",
			Help:      "Appointments held in the dashboard collection",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.storeLatency, m.cached)
	return m
}

// ObserveOperation counts one operation by outcome and records its store
// latency. A nil receiver is a no-op.
func (m *DashboardMetrics) ObserveOperation(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
	m.storeLatency.WithLabelValues(operation).Observe(seconds)
}

// SetCached reports the size of the cached appointment list.
func (m *DashboardMetrics) SetCached(n int) {
	if m == nil {
		return
	}
	m.cached.Set(float64(n))
}
