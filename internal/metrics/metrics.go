// Package metrics provides Prometheus metrics for the explorer server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Tree metrics
	treeSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_tree_nodes",
			Help: "Number of nodes in the last built tree",
		},
	)

	treeRoots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_tree_roots",
			Help: "Number of roots (including orphans) in the last built tree",
		},
	)

	treeBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "explorer_tree_build_duration_seconds",
			Help:    "Time to load nodes and assemble the forest",
			Buckets: prometheus.DefBuckets,
		},
	)

	nodeMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_node_mutations_total",
			Help: "Node create/update/delete operations",
		},
		[]string{"op", "status"},
	)

	searchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "explorer_search_results",
			Help:    "Number of nodes returned per search",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 200},
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	dbConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	// Event stream metrics
	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_sse_connections_active",
			Help: "Number of connected event stream subscribers",
		},
	)

	sseEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_sse_events_total",
			Help: "Node events published",
		},
		[]string{"type"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTreeBuild records the size and duration of a tree build.
func RecordTreeBuild(nodes, roots int, duration time.Duration) {
	treeSize.Set(float64(nodes))
	treeRoots.Set(float64(roots))
	treeBuildDuration.Observe(duration.Seconds())
}

// RecordMutation records a node mutation.
func RecordMutation(op string, success bool) {
	nodeMutationsTotal.WithLabelValues(op, status(success)).Inc()
}

// RecordSearch records the number of search hits.
func RecordSearch(results int) {
	searchResults.Observe(float64(results))
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(query string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// SetDBConnectionsOpen sets the number of open database connections.
func SetDBConnectionsOpen(count int) {
	dbConnectionsOpen.Set(float64(count))
}

// SetSSEConnectionsActive sets the number of event stream subscribers.
func SetSSEConnectionsActive(count int64) {
	sseConnectionsActive.Set(float64(count))
}

// RecordSSEEvent counts a published event.
func RecordSSEEvent(eventType string) {
	sseEventsTotal.WithLabelValues(eventType).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware returns HTTP middleware that records request metrics.
// Requests are labelled by the matched ServeMux pattern, not the raw path,
// so node ids do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
