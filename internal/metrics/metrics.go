// Package metrics provides collection and exposure of Prometheus metrics
// for the HTTP API and its upstream dependencies.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Labels for the upstream errors counter.
const (
	UpstreamCredentialStore = "credential_store"
	UpstreamDocumentStore   = "document_store"
)

// Collector gathers Prometheus metrics about served requests and failed
// calls to the external stores.
type Collector struct {
	httpRequests    *prometheus.CounterVec
	requestDuration prometheus.Histogram
	upstreamErrors  *prometheus.CounterVec
}

// NewCollector creates a new Collector and registers its metrics with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskbox_http_requests_total",
			Help: "Total number of served HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskbox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskbox_upstream_errors_total",
			Help: "Total number of failed calls to external stores",
		}, []string{"upstream"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.requestDuration,
		c.upstreamErrors,
	)

	return c
}

// RecordHTTPRequest counts a served request.
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration records how long a request took to serve.
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordUpstreamError counts a failed call to an external store.
func (c *Collector) RecordUpstreamError(upstream string) {
	c.upstreamErrors.WithLabelValues(upstream).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.statusCode = statusCode
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) status() int {
	if r.statusCode == 0 {
		return http.StatusOK
	}
	return r.statusCode
}

// WithMetricsHTTPMiddleware wraps an http.Handler and records every served
// request. The route label holds the matched route pattern rather than the
// raw URL, which keeps the label cardinality bounded.
func (c *Collector) WithMetricsHTTPMiddleware(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		start := time.Now()

		recorder := &statusRecorder{ResponseWriter: response}
		h.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		c.RecordHTTPRequest(request.Method, route, recorder.status())
		c.RecordRequestDuration(time.Since(start))
	}

	return http.HandlerFunc(middleware)
}

// Handler returns the HTTP handler serving the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
