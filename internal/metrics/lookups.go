package metrics

import "github.com/prometheus/client_golang/prometheus"

// Lookups counts translation lookups served over HTTP.
type Lookups struct {
	total *prometheus.CounterVec
}

func NewLookups() *Lookups {
	return &Lookups{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tscat_lookups_total",
			Help: "Translation lookups by locale and result (hit, miss)",
		}, []string{"locale", "result"}),
	}
}

// Collector returns the underlying metric for registration.
func (l *Lookups) Collector() prometheus.Collector {
	return l.total
}

// Observe records one lookup. A miss means the source text was served.
func (l *Lookups) Observe(locale string, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	l.total.WithLabelValues(locale, result).Inc()
}
