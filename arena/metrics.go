package arena

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	allocations   prometheus.Counter
	collections   *prometheus.CounterVec
	minor         prometheus.Counter
	major         prometheus.Counter
	barrierStores prometheus.Counter
	remembered    prometheus.Counter
	relocations   prometheus.Counter
	live          prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heapcoll",
			Subsystem: "arena",
			Name:      "allocations_total",
			Help:      "Total number of objects allocated.",
		}),
		collections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heapcoll",
			Subsystem: "arena",
			Name:      "collections_total",
			Help:      "Total number of collections by kind.",
		}, []string{"kind"}),
		barrierStores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heapcoll",
			Subsystem: "arena",
			Name:      "barrier_stores_total",
			Help:      "Total number of reference stores routed through the write barrier.",
		}),
		remembered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heapcoll",
			Subsystem: "arena",
			Name:      "remembered_total",
			Help:      "Total number of old objects added to the remembered set.",
		}),
		relocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heapcoll",
			Subsystem: "arena",
			Name:      "relocations_total",
			Help:      "Total number of objects moved by compaction.",
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heapcoll",
			Subsystem: "arena",
			Name:      "live_objects",
			Help:      "Number of objects in the heap after the last allocation or collection.",
		}),
	}
	m.minor = m.collections.WithLabelValues("minor")
	m.major = m.collections.WithLabelValues("major")
	if reg != nil {
		reg.MustRegister(
			m.allocations,
			m.collections,
			m.barrierStores,
			m.remembered,
			m.relocations,
			m.live,
		)
	}
	return m
}
