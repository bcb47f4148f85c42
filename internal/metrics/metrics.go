// Package metrics holds the Prometheus collectors of the recommendation
// service. Collectors register on the default registry and are served by the
// ops listener at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planrec_recommendations_total",
			Help: "Recommendation requests by strategy and outcome",
		},
		[]string{"strategy", "outcome"}, // strategy: cheapest|nearest|none, outcome: ok|not_found|error
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "planrec_recommendation_duration_seconds",
			Help:    "Time spent computing one recommendation",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// Dataset metrics
	DatasetRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "planrec_dataset_records",
			Help: "Rows in the published snapshot per sheet",
		},
		[]string{"sheet"},
	)

	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planrec_dataset_loads_total",
			Help: "Workbook loads by result",
		},
		[]string{"result"},
	)

	DatasetLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "planrec_dataset_loaded_timestamp_seconds",
			Help: "Unix time the published snapshot was loaded",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planrec_api_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planrec_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordRecommendation records one engine call
func RecordRecommendation(strategy, outcome string, duration time.Duration) {
	if strategy == "" {
		strategy = "none"
	}
	RecommendationsTotal.WithLabelValues(strategy, outcome).Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordDatasetLoad records a workbook load and, on success, the sheet sizes
func RecordDatasetLoad(counts map[string]int, loadedAt time.Time, err error) {
	if err != nil {
		DatasetLoadsTotal.WithLabelValues("error").Inc()
		return
	}
	DatasetLoadsTotal.WithLabelValues("ok").Inc()
	for sheet, n := range counts {
		DatasetRecords.WithLabelValues(sheet).Set(float64(n))
	}
	DatasetLoadedTimestamp.Set(float64(loadedAt.Unix()))
}

// RecordAPIRequest records an HTTP request
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
