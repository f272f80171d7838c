package processor

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a Scheduler/PeriodicDriver report
// to. Registered against the Registerer passed to NewMetrics rather than
// the global default registry, so a test or an embedding application can
// supply its own prometheus.Registry without risking a duplicate-collector
// panic across multiple Service instances in the same process.
type Metrics struct {
	JobsDispatchedTotal *prometheus.CounterVec
	JobDurationSeconds  *prometheus.HistogramVec
	QueueDepth          *prometheus.GaugeVec
	PeriodicFiresTotal  *prometheus.CounterVec
}

// NewMetrics constructs and registers the processor's collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsDispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskforge_jobs_dispatched_total",
			Help: "Total dispatched jobs by outcome.",
		}, []string{"outcome"}),
		JobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskforge_job_duration_seconds",
			Help:    "Handler execution latency by worker.",
			Buckets: prometheus.DefBuckets,
		}, []string{"worker"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "taskforge_queue_depth",
			Help: "Last-observed queue depth.",
		}, []string{"queue"}),
		PeriodicFiresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskforge_periodic_fires_total",
			Help: "Total periodic fires claimed by worker.",
		}, []string{"worker"}),
	}
	if reg != nil {
		reg.MustRegister(m.JobsDispatchedTotal, m.JobDurationSeconds, m.QueueDepth, m.PeriodicFiresTotal)
	}
	return m
}
