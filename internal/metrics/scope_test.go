package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitScope_DefaultBackendServesHealth(t *testing.T) {
	scope, closer, mux := InitScope(&Config{}, "offermatcher_test", func() bool { return true })
	require.NotNil(t, scope)
	defer closer.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitScope_UnhealthyReportsServiceUnavailable(t *testing.T) {
	_, closer, mux := InitScope(&Config{}, "offermatcher_test", func() bool { return false })
	defer closer.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInitScope_PrometheusEnabledServesMetricsEndpoint(t *testing.T) {
	_, closer, mux := InitScope(&Config{Prometheus: &PrometheusConfig{Enable: true}}, "offermatcher-test", nil)
	defer closer.Close()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
