package engine

import "github.com/prometheus/client_golang/prometheus"

// engineMetrics holds the Prometheus collectors for a single Engine.
type engineMetrics struct {
	tasksExecuted   prometheus.Counter
	tasksFailed     prometheus.Counter
	rebuildDuration prometheus.Histogram
}

func newEngineMetrics() *engineMetrics {
	return &engineMetrics{
		tasksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiche",
			Subsystem: "engine",
			Name:      "tasks_executed_total",
			Help:      "Task functions invoked to rebuild a stale or missing target.",
		}),
		tasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiche",
			Subsystem: "engine",
			Name:      "tasks_failed_total",
			Help:      "Task function invocations that returned an error or panicked.",
		}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quiche",
			Subsystem: "engine",
			Name:      "rebuild_duration_seconds",
			Help:      "Wall-clock time spent invoking a task function during a rebuild.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Collectors returns this Engine's Prometheus collectors so a host
// application can register them with its own registry.
func (e *Engine) Collectors() []prometheus.Collector {
	return []prometheus.Collector{e.metrics.tasksExecuted, e.metrics.tasksFailed, e.metrics.rebuildDuration}
}
