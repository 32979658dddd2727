package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendingdigest_source_fetch_total",
		Help: "The total number of source fetches by outcome",
	}, []string{"source", "status"})

	SourceFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trendingdigest_source_fetch_duration_seconds",
		Help:    "Duration of a single source fetch",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
	}, []string{"source"})

	CategoryItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trendingdigest_category_items",
		Help: "Number of items produced for a category in the latest run",
	}, []string{"category"})
)

func observeFetch(source string, res Result, elapsed time.Duration) {
	status := "ok"
	if !res.OK() {
		status = "failed"
	}
	SourceFetches.WithLabelValues(source, status).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}
