package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Jobs records maintenance job runs. Like Commerce, a nil *Jobs is a no-op.
type Jobs struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

func NewJobs(reg prometheus.Registerer) *Jobs {
	if reg == nil {
		return nil
	}
	j := &Jobs{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maintenance_job_duration_seconds",
			Help:    "Maintenance job latency by job name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maintenance_job_runs_total",
			Help: "Maintenance job runs by job name and outcome.",
		}, []string{"job", "outcome"}),
	}
	reg.MustRegister(j.duration, j.runs)
	return j
}

// Observe records one run; err decides the outcome label.
func (j *Jobs) Observe(job string, elapsed time.Duration, err error) {
	if j == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	job = normalizeLabel(job)
	j.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	j.runs.WithLabelValues(job, outcome).Inc()
}
