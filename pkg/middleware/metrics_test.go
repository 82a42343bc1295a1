package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readMetric snapshots one child of a labelled collector.
func readMetric(t *testing.T, m prometheus.Metric) *dto.Metric {
	t.Helper()
	out := &dto.Metric{}
	require.NoError(t, m.Write(out))
	return out
}

// catalogRouter mounts a few catalog-shaped routes behind PrometheusMetrics.
// Each test passes its own service name so series do not collide.
func catalogRouter(service string) http.Handler {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(service))
	r.Get("/api/v1/products", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":"` + chi.URLParam(r, "id") + `"}`))
	})
	r.Post("/api/v1/catalog/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func hit(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestPrometheusMetrics_RoutePatternLabel(t *testing.T) {
	const svc = "catalog-route-pattern"
	h := catalogRouter(svc)

	for _, id := range []string{"prod_01", "prod_02", "prod_03"} {
		assert.Equal(t, http.StatusOK, hit(h, http.MethodGet, "/api/v1/products/"+id).Code)
	}

	m := readMetric(t, httpRequestsTotal.WithLabelValues(svc, http.MethodGet, "/api/v1/products/{id}", "200"))
	assert.Equal(t, float64(3), m.GetCounter().GetValue())

	raw := readMetric(t, httpRequestsTotal.WithLabelValues(svc, http.MethodGet, "/api/v1/products/prod_01", "200"))
	assert.Zero(t, raw.GetCounter().GetValue())
}

func TestPrometheusMetrics_StatusLabel(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		route  string
		status string
	}{
		{"implicit ok", http.MethodGet, "/api/v1/products/prod_01", "/api/v1/products/{id}", "200"},
		{"explicit ok", http.MethodGet, "/api/v1/products", "/api/v1/products", "200"},
		{"not found", http.MethodGet, "/api/v1/products/missing", "/api/v1/products/{id}", "404"},
		{"first header wins", http.MethodPost, "/api/v1/catalog/refresh", "/api/v1/catalog/refresh", "502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := "catalog-status-" + tt.name
			hit(catalogRouter(svc), tt.method, tt.path)

			m := readMetric(t, httpRequestsTotal.WithLabelValues(svc, tt.method, tt.route, tt.status))
			assert.Equal(t, float64(1), m.GetCounter().GetValue())

			obs, ok := httpRequestDuration.WithLabelValues(svc, tt.method, tt.route, tt.status).(prometheus.Metric)
			require.True(t, ok)
			assert.Equal(t, uint64(1), readMetric(t, obs).GetHistogram().GetSampleCount())
		})
	}
}

func TestPrometheusMetrics_UnmatchedRoute(t *testing.T) {
	const svc = "catalog-unmatched"
	hit(catalogRouter(svc), http.MethodGet, "/api/v2/nothing")

	m := readMetric(t, httpRequestsTotal.WithLabelValues(svc, http.MethodGet, unmatchedRoute, "404"))
	assert.Equal(t, float64(1), m.GetCounter().GetValue())
}

func TestPrometheusMetrics_InFlight(t *testing.T) {
	const svc = "catalog-in-flight"
	var during float64

	h := PrometheusMetrics(svc)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		during = readMetric(t, httpRequestsInFlight.WithLabelValues(svc)).GetGauge().GetValue()
		w.WriteHeader(http.StatusNoContent)
	}))
	hit(h, http.MethodGet, "/api/v1/catalog/stats")

	assert.Equal(t, float64(1), during)
	assert.Zero(t, readMetric(t, httpRequestsInFlight.WithLabelValues(svc)).GetGauge().GetValue())
}

func TestPrometheusMetrics_ResponseSize(t *testing.T) {
	const svc = "catalog-response-size"
	h := catalogRouter(svc)
	hit(h, http.MethodGet, "/api/v1/products/prod_01")
	hit(h, http.MethodGet, "/api/v1/products/prod_02")

	obs, ok := httpResponseSize.WithLabelValues(svc, "/api/v1/products/{id}").(prometheus.Metric)
	require.True(t, ok)
	hist := readMetric(t, obs).GetHistogram()
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.Equal(t, float64(2*len(`{"id":"prod_01"}`)), hist.GetSampleSum())
}
