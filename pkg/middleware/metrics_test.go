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

// collectMetric returns the first sample of c whose labels include all of
// labels, or nil.
func collectMetric(c prometheus.Collector, labels map[string]string) *dto.Metric {
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		if hasLabels(d, labels) {
			return d
		}
	}
	return nil
}

func hasLabels(d *dto.Metric, labels map[string]string) bool {
	got := make(map[string]string, len(d.GetLabel()))
	for _, lp := range d.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}

func metricsRouter(service string, status int, body string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(service))
	r.Get("/api/v1/foods/{id}", func(w http.ResponseWriter, r *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
		}
		_, _ = w.Write([]byte(body))
	})
	return r
}

func TestPrometheusMetrics_CountsByRoutePattern(t *testing.T) {
	r := metricsRouter("count-svc", http.StatusOK, "")

	for _, id := range []string{"food-1", "food-2", "food-3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/foods/"+id, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	m := collectMetric(httpRequestsTotal, map[string]string{
		"service": "count-svc", "method": "GET", "route": "/api/v1/foods/{id}", "status": "200",
	})
	require.NotNil(t, m)
	assert.Equal(t, float64(3), m.GetCounter().GetValue())
}

func TestPrometheusMetrics_StatusCodes(t *testing.T) {
	tests := []struct {
		service string
		status  int
		want    string
	}{
		{"status-created", http.StatusCreated, "201"},
		{"status-not-found", http.StatusNotFound, "404"},
		{"status-bad-gateway", http.StatusBadGateway, "502"},
		{"status-implicit", 0, "200"},
	}

	for _, tc := range tests {
		t.Run(tc.service, func(t *testing.T) {
			r := metricsRouter(tc.service, tc.status, "ok")
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/foods/x", nil))

			m := collectMetric(httpRequestsTotal, map[string]string{"service": tc.service, "status": tc.want})
			require.NotNil(t, m)
		})
	}
}

func TestPrometheusMetrics_DurationAndSize(t *testing.T) {
	r := metricsRouter("hist-svc", http.StatusOK, `{"data":{"id":"food-1"}}`)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/foods/food-1", nil))

	d := collectMetric(httpRequestDuration, map[string]string{"service": "hist-svc", "route": "/api/v1/foods/{id}"})
	require.NotNil(t, d)
	assert.Equal(t, uint64(1), d.GetHistogram().GetSampleCount())

	s := collectMetric(httpResponseSize, map[string]string{"service": "hist-svc"})
	require.NotNil(t, s)
	assert.Equal(t, float64(len(`{"data":{"id":"food-1"}}`)), s.GetHistogram().GetSampleSum())
}

func TestPrometheusMetrics_InFlightGauge(t *testing.T) {
	seen := float64(-1)
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("inflight-svc"))
	r.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		if m := collectMetric(httpRequestsInFlight, map[string]string{"service": "inflight-svc"}); m != nil {
			seen = m.GetGauge().GetValue()
		}
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, float64(1), seen)
	after := collectMetric(httpRequestsInFlight, map[string]string{"service": "inflight-svc"})
	require.NotNil(t, after)
	assert.Equal(t, float64(0), after.GetGauge().GetValue())
}

func TestPrometheusMetrics_UnmatchedRoute(t *testing.T) {
	handler := PrometheusMetrics("bare-svc")(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))

	m := collectMetric(httpRequestsTotal, map[string]string{"service": "bare-svc", "route": unmatchedRoute})
	require.NotNil(t, m)
}

// --- statusWriter ---

type flushRecorder struct {
	*httptest.ResponseRecorder
	flushed bool
}

func (f *flushRecorder) Flush() { f.flushed = true }

func TestStatusWriter_FirstStatusWins(t *testing.T) {
	sw := newStatusWriter(httptest.NewRecorder())
	sw.WriteHeader(http.StatusTeapot)
	sw.WriteHeader(http.StatusOK)
	n, err := sw.Write([]byte("abc"))

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, http.StatusTeapot, sw.status)
	assert.Equal(t, 3, sw.bytes)
}

func TestStatusWriter_ReusesExistingWrapper(t *testing.T) {
	sw := newStatusWriter(httptest.NewRecorder())
	assert.Same(t, sw, newStatusWriter(sw))
}

func TestStatusWriter_Flush(t *testing.T) {
	underlying := &flushRecorder{ResponseRecorder: httptest.NewRecorder()}
	newStatusWriter(underlying).Flush()
	assert.True(t, underlying.flushed)

	// No-op when the underlying writer cannot flush.
	newStatusWriter(struct{ http.ResponseWriter }{httptest.NewRecorder()}).Flush()
}
