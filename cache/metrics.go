package cache

import "github.com/prometheus/client_golang/prometheus"

// managerMetrics holds the Prometheus collectors for a single Manager.
// Each Manager gets its own registry-less collectors (not registered with
// the global prometheus.DefaultRegisterer automatically) so embedding
// quiche in a host application doesn't force a particular metrics
// namespace; callers that want these exported call Manager.Collectors and
// register them explicitly.
type managerMetrics struct {
	hits        *prometheus.CounterVec
	misses      prometheus.Counter
	stores      prometheus.Counter
	storeErrors prometheus.Counter
}

func newManagerMetrics() *managerMetrics {
	return &managerMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiche",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by tier (memory or disk).",
		}, []string{"tier"}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiche",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache lookups that found no usable value in either tier.",
		}),
		stores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiche",
			Subsystem: "cache",
			Name:      "stores_total",
			Help:      "Successful Manager.Store calls.",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiche",
			Subsystem: "cache",
			Name:      "store_errors_total",
			Help:      "Manager.Store calls that failed to encode or persist.",
		}),
	}
}

// Collectors returns this Manager's Prometheus collectors so a host
// application can register them with its own registry, e.g.
// prometheus.DefaultRegisterer.MustRegister(mgr.Collectors()...).
func (m *Manager) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.metrics.hits,
		m.metrics.misses,
		m.metrics.stores,
		m.metrics.storeErrors,
	}
}
