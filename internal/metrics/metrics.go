package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"scenarioq/internal/stats"
)

// Snapshot holds the final counters of one run in its own registry.
type Snapshot struct {
	Registry *prometheus.Registry

	requests   *prometheus.CounterVec
	successful *prometheus.CounterVec
	failed     *prometheus.CounterVec
	latency    *prometheus.GaugeVec
	overall    *prometheus.GaugeVec
	users      *prometheus.GaugeVec
	duration   prometheus.Gauge
}

func NewSnapshot() *Snapshot {
	s := &Snapshot{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenarioq_requests_total",
			Help: "Requests completed per scenario request name",
		}, []string{"request"}),
		successful: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenarioq_responses_successful_total",
			Help: "Successful responses (2xx status)",
		}, []string{"request"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenarioq_responses_failed_total",
			Help: "Failed requests (non-2xx status or transport error)",
		}, []string{"request"}),
		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scenarioq_request_latency_ms",
			Help: "Per request name latency statistics in milliseconds",
		}, []string{"request", "stat"}),
		overall: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scenarioq_latency_percentile_ms",
			Help: "Latency percentiles across all requests in milliseconds",
		}, []string{"percentile"}),
		users: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scenarioq_virtual_users",
			Help: "Virtual users by exit status",
		}, []string{"status"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scenarioq_run_duration_seconds",
			Help: "Wall time of the run",
		}),
	}
	s.Registry.MustRegister(s.requests, s.successful, s.failed, s.latency, s.overall, s.users, s.duration)
	return s
}

// Observe loads the values of a finished report.
func (s *Snapshot) Observe(rep *stats.Report) {
	for _, e := range rep.Endpoints {
		s.requests.WithLabelValues(e.Name).Add(float64(e.Count))
		s.successful.WithLabelValues(e.Name).Add(float64(e.SuccessCount))
		s.failed.WithLabelValues(e.Name).Add(float64(e.FailCount))
		s.latency.WithLabelValues(e.Name, "avg").Set(e.AvgMs)
		s.latency.WithLabelValues(e.Name, "min").Set(e.MinMs)
		s.latency.WithLabelValues(e.Name, "max").Set(e.MaxMs)
		s.latency.WithLabelValues(e.Name, "p95").Set(e.P95Ms)
	}

	s.overall.WithLabelValues("50").Set(rep.P50Ms)
	s.overall.WithLabelValues("90").Set(rep.P90Ms)
	s.overall.WithLabelValues("99").Set(rep.P99Ms)

	s.users.WithLabelValues("spawned").Set(float64(rep.Users.Spawned))
	s.users.WithLabelValues("completed").Set(float64(rep.Users.Completed))
	s.users.WithLabelValues("cancelled").Set(float64(rep.Users.Cancelled))
	s.users.WithLabelValues("aborted").Set(float64(rep.Users.Aborted))
	s.users.WithLabelValues("not_started").Set(float64(rep.Users.NotStarted))

	s.duration.Set(rep.Duration.Seconds())
}

// WriteTextfile writes the report in the Prometheus text format, suitable for
// the node exporter textfile collector.
func WriteTextfile(rep *stats.Report, filename string) error {
	s := NewSnapshot()
	s.Observe(rep)
	return prometheus.WriteToTextfile(filename, s.Registry)
}
