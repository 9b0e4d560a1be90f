package intern

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	shapes  *prometheus.CounterVec
	lookups *prometheus.CounterVec

	// Children are resolved once per kind to keep label lookups off the
	// interning path.
	hits   [numKinds]prometheus.Counter
	misses [numKinds]prometheus.Counter
	added  [numKinds]prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	m := &metrics{
		shapes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metaid_intern_shapes_total",
			Help: "Total shapes assigned a new key, by shape kind",
		}, []string{"kind"}),
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metaid_intern_lookups_total",
			Help: "Total intern lookups by shape kind and result",
		}, []string{"kind", "result"}),
	}
	for k := Kind(0); k < numKinds; k++ {
		m.hits[k] = m.lookups.WithLabelValues(k.String(), "hit")
		m.misses[k] = m.lookups.WithLabelValues(k.String(), "miss")
		m.added[k] = m.shapes.WithLabelValues(k.String())
	}
	return m
}

func (m *metrics) hit(k Kind) {
	m.hits[k].Inc()
}

func (m *metrics) miss(k Kind) {
	m.misses[k].Inc()
	m.added[k].Inc()
}
