// Package metrics defines data-source-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Data source counter vectors
var (
	DataSourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "datasource_requests_total",
		Help:      "Total number of upstream requests by source and status",
	}, []string{"source", "status"})

	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of session cache lookups by layer and result",
	}, []string{"layer", "result"})
)

// Data source histogram vectors
var (
	DataSourceLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "datasource_latency_seconds",
		Help:      "Upstream request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
)

// RecordDataSourceRequest records an upstream request.
// status should be one of: "success", "not_found", "failure"
func RecordDataSourceRequest(source, status string, latencySeconds float64) {
	DataSourceRequestsTotal.WithLabelValues(source, status).Inc()
	DataSourceLatency.WithLabelValues(source).Observe(latencySeconds)
}

// RecordCacheLookup records a cache lookup.
// layer should be one of: "memory", "disk"
func RecordCacheLookup(layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(layer, result).Inc()
}
