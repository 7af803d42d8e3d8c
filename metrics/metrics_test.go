package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServer_ExposesTEEMetrics(t *testing.T) {
	srv, err := New("tee_test", "127.0.0.1:0")
	require.NoError(t, err)

	m := NewTEEMetrics(srv.Registry(), "tee_test")
	m.Requests.Inc()
	m.Outcomes.WithLabelValues(OutcomeSuccess).Inc()
	m.Outcomes.WithLabelValues(OutcomeSuccess).Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Outcomes.WithLabelValues(OutcomeSuccess)))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tee_test_execute_requests_total 1")
	assert.Contains(t, string(body), `tee_test_execute_outcomes_total{outcome="success"} 2`)
}

func TestNewTEEMetrics_Unregistered(t *testing.T) {
	m := NewTEEMetrics(nil, "unregistered")
	m.InFlight.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InFlight))
}
