// Package metrics provides Prometheus metrics for the fruitshell client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fruitshell_cache_hits_total",
			Help: "Total listing cache hits",
		},
	)

	cacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fruitshell_cache_misses_total",
			Help: "Total listing cache misses",
		},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fruitshell_cache_entries",
			Help: "Number of live listing cache entries",
		},
	)

	cacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fruitshell_cache_invalidations_total",
			Help: "Total cache invalidations",
		},
		[]string{"scope"},
	)

	remoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fruitshell_remote_requests_total",
			Help: "Total remote API requests",
		},
		[]string{"operation", "status"},
	)

	remoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fruitshell_remote_request_duration_seconds",
			Help:    "Remote API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	pluginResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fruitshell_plugin_resolutions_total",
			Help: "Total plugin-executable resolutions",
		},
		[]string{"result"},
	)

	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fruitshell_commands_total",
			Help: "Total dispatched commands",
		},
		[]string{"handler"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts a metrics listener on addr. Blocks; run in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}

// RecordCacheHit records a listing cache hit.
func RecordCacheHit() {
	cacheHitsTotal.Inc()
}

// RecordCacheMiss records a listing cache miss.
func RecordCacheMiss() {
	cacheMissesTotal.Inc()
}

// SetCacheEntries sets the live cache entry count.
func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

// RecordCacheInvalidation records an invalidation ("path" or "full").
func RecordCacheInvalidation(scope string) {
	cacheInvalidationsTotal.WithLabelValues(scope).Inc()
}

// RecordRemoteRequest records a remote API request.
func RecordRemoteRequest(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	remoteRequestsTotal.WithLabelValues(operation, status).Inc()
	remoteRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPluginResolution records a plugin resolution outcome ("exact",
// "scan", "miss", "error").
func RecordPluginResolution(result string) {
	pluginResolutionsTotal.WithLabelValues(result).Inc()
}

// RecordCommand records a dispatched command by handler kind
// ("plugin", "builtin", "external").
func RecordCommand(handler string) {
	commandsTotal.WithLabelValues(handler).Inc()
}
