package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ChartLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "metricpulse",
			Subsystem: "charts",
			Name:      "latency_seconds",
			Help:      "Latency of chart endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ChartErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metricpulse",
			Subsystem: "charts",
			Name:      "errors_total",
			Help:      "Errors by chart endpoint",
		},
		[]string{"endpoint"},
	)

	ChartCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metricpulse",
			Subsystem: "charts",
			Name:      "cache_hits_total",
			Help:      "Chart response cache hits",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ChartLatency, ChartErrors, ChartCacheHits)
	})
}
