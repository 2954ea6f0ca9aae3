package jobqueue

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the counters/gauges/histograms spec.md §4.F calls for,
// all labeled by queue name so a single worker-pool binary can expose
// per-queue health without separate registries.
type metrics struct {
	claimed    *prometheus.CounterVec
	completed  *prometheus.CounterVec
	retried    *prometheus.CounterVec
	dead       *prometheus.CounterVec
	inFlight   *prometheus.GaugeVec
	pending    *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		claimed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "archivist_jobqueue_claimed_total",
			Help: "Jobs claimed for processing, by queue.",
		}, []string{"queue"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "archivist_jobqueue_completed_total",
			Help: "Jobs completed successfully, by queue.",
		}, []string{"queue"}),
		retried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "archivist_jobqueue_retried_total",
			Help: "Jobs scheduled for retry after a failure, by queue.",
		}, []string{"queue"}),
		dead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "archivist_jobqueue_dead_total",
			Help: "Jobs dead-lettered after exhausting retries, by queue.",
		}, []string{"queue"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "archivist_jobqueue_in_flight",
			Help: "Jobs currently being processed, by queue.",
		}, []string{"queue"}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "archivist_jobqueue_pending",
			Help: "Jobs waiting in the in-memory heap, by queue.",
		}, []string{"queue"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "archivist_jobqueue_job_duration_seconds",
			Help:    "Job handler execution time, by queue.",
			Buckets: prometheus.DefBuckets,
		}, []string{"queue"}),
	}
	if reg != nil {
		reg.MustRegister(m.claimed, m.completed, m.retried, m.dead, m.inFlight, m.pending, m.duration)
	}
	return m
}
