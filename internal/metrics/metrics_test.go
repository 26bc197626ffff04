package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRequestsByRoutePattern(t *testing.T) {
	collector := NewCollector(prometheus.NewRegistry())

	router := chi.NewRouter()
	router.Use(collector.WithMetricsHTTPMiddleware)
	router.Get("/task/{task_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(router)
	defer server.Close()

	for _, taskID := range []string{"first", "second"} {
		response, err := http.Get(server.URL + "/task/" + taskID)
		require.NoError(t, err)
		require.NoError(t, response.Body.Close())
	}

	served := testutil.ToFloat64(collector.httpRequests.WithLabelValues("GET", "/task/{task_id}", "200"))
	assert.Equal(t, float64(2), served, "Both requests should be counted under one route pattern")
}

func TestMiddlewareCountsStatusOfUnwrittenResponses(t *testing.T) {
	collector := NewCollector(prometheus.NewRegistry())

	router := chi.NewRouter()
	router.Use(collector.WithMetricsHTTPMiddleware)
	router.Get("/silent", func(w http.ResponseWriter, r *http.Request) {})

	request := httptest.NewRequest(http.MethodGet, "/silent", nil)
	router.ServeHTTP(httptest.NewRecorder(), request)

	served := testutil.ToFloat64(collector.httpRequests.WithLabelValues("GET", "/silent", "200"))
	assert.Equal(t, float64(1), served, "A handler that writes nothing still responds with 200")
}

func TestRecordUpstreamError(t *testing.T) {
	collector := NewCollector(prometheus.NewRegistry())

	collector.RecordUpstreamError(UpstreamCredentialStore)
	collector.RecordUpstreamError(UpstreamCredentialStore)
	collector.RecordUpstreamError(UpstreamDocumentStore)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.upstreamErrors.WithLabelValues(UpstreamCredentialStore)))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.upstreamErrors.WithLabelValues(UpstreamDocumentStore)))
}
