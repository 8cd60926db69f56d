package supervisor

import "github.com/prometheus/client_golang/prometheus"

var (
	metricStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamactl",
			Subsystem: "supervisor",
			Name:      "starts_total",
			Help:      "Start requests by outcome (started, reused, error)",
		},
		[]string{"outcome"},
	)

	metricStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llamactl",
			Subsystem: "supervisor",
			Name:      "stops_total",
			Help:      "Server processes stopped",
		},
	)

	metricRestarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llamactl",
			Subsystem: "supervisor",
			Name:      "restarts_total",
			Help:      "Starts that replaced a running server with a different configuration",
		},
	)

	metricCrashes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llamactl",
			Subsystem: "supervisor",
			Name:      "crashes_total",
			Help:      "Server processes that exited without being asked to",
		},
	)

	metricProbeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "llamactl",
			Subsystem: "supervisor",
			Name:      "startup_probe_seconds",
			Help:      "Time from process launch to first passing health probe",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)

	metricOrphansKilled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llamactl",
			Subsystem: "supervisor",
			Name:      "orphans_killed_total",
			Help:      "Stray server processes killed by sweeps",
		},
	)

	metricModelLoads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llamactl",
			Subsystem: "router",
			Name:      "model_loads_total",
			Help:      "Models loaded into a router-mode server",
		},
	)

	metricEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llamactl",
			Subsystem: "router",
			Name:      "model_evictions_total",
			Help:      "Models evicted to make room under the residency cap",
		},
	)

	metricResidentModels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "llamactl",
			Subsystem: "router",
			Name:      "resident_models",
			Help:      "Models currently resident on the router-mode server",
		},
	)
)

func init() {
	prometheus.MustRegister(
		metricStarts,
		metricStops,
		metricRestarts,
		metricCrashes,
		metricProbeDuration,
		metricOrphansKilled,
		metricModelLoads,
		metricEvictions,
		metricResidentModels,
	)
}
